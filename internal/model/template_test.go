package model

import (
	"encoding/json"
	"testing"
)

func sampleQuestions() []Question {
	return []Question{
		{ID: "1.1", Text: "填空(1)", ExpectedAnswer: "7", Type: AnswerNumeric, MaxPoints: 2, Tolerance: 0.1},
		{ID: "2.1", Text: "解比例(1)", ExpectedAnswer: "x=1.2", Type: AnswerFormula, MaxPoints: 4, SimilarityThreshold: 0.8},
		{ID: "5", Text: "拓展题", ExpectedAnswer: "甲:96袋,乙:72袋", Type: AnswerText, MaxPoints: 8, SimilarityThreshold: 0.8},
	}
}

func TestNewTemplateValidation(t *testing.T) {
	tests := []struct {
		name      string
		questions []Question
		wantErr   bool
	}{
		{"valid", sampleQuestions(), false},
		{"empty id", []Question{{ID: "", Type: AnswerText, MaxPoints: 1}}, true},
		{"duplicate id", []Question{
			{ID: "1", Type: AnswerText, MaxPoints: 1},
			{ID: "1", Type: AnswerText, MaxPoints: 1},
		}, true},
		{"non-positive points", []Question{{ID: "1", Type: AnswerText, MaxPoints: 0}}, true},
		{"unknown type", []Question{{ID: "1", Type: "essay", MaxPoints: 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTemplate(tt.questions)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTemplate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTemplateAccessors(t *testing.T) {
	tpl, err := NewTemplate(sampleQuestions())
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}

	if tpl.Len() != 3 {
		t.Errorf("expected 3 questions, got %d", tpl.Len())
	}
	if got := tpl.MaxScore(); got != 14 {
		t.Errorf("expected max score 14, got %g", got)
	}

	q, ok := tpl.Get("2.1")
	if !ok {
		t.Fatal("expected to find question 2.1")
	}
	if q.Type != AnswerFormula {
		t.Errorf("expected formula type, got %q", q.Type)
	}

	if _, ok := tpl.Get("9.9"); ok {
		t.Error("expected miss for unknown id")
	}
	if tpl.Has("9.9") {
		t.Error("Has should be false for unknown id")
	}

	// Questions come back in page order, and mutating the copy must not
	// touch the template.
	qs := tpl.Questions()
	if qs[0].ID != "1.1" || qs[1].ID != "2.1" || qs[2].ID != "5" {
		t.Errorf("unexpected question order: %v", qs)
	}
	qs[0].ID = "mutated"
	if got, _ := tpl.Get("1.1"); got.ID != "1.1" {
		t.Error("template mutated through Questions() copy")
	}
}

func TestTemplateJSONRoundTrip(t *testing.T) {
	tpl, err := NewTemplate(sampleQuestions())
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}

	data, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got AnswerTemplate
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.Len() != tpl.Len() {
		t.Fatalf("expected %d questions after round trip, got %d", tpl.Len(), got.Len())
	}
	want := tpl.Questions()
	for i, q := range got.Questions() {
		if q.ID != want[i].ID {
			t.Errorf("question %d: id %q, want %q", i, q.ID, want[i].ID)
		}
		if q.Type != want[i].Type {
			t.Errorf("question %s: type %q, want %q", q.ID, q.Type, want[i].Type)
		}
		if q.MaxPoints != want[i].MaxPoints {
			t.Errorf("question %s: points %g, want %g", q.ID, q.MaxPoints, want[i].MaxPoints)
		}
	}
}

func TestTemplateUnmarshalInvalid(t *testing.T) {
	var tpl AnswerTemplate
	err := json.Unmarshal([]byte(`[{"question_id":"1","answer_type":"text","max_points":0}]`), &tpl)
	if err == nil {
		t.Error("expected error for non-positive max points")
	}
}
