package ocr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleResult = `{
	"rec_texts": ["1. 求和", "7", "2. 解方程", "x=1.2", ""],
	"rec_scores": [0.98, 0.91, 0.97, 0.88, 0.1],
	"rec_boxes": [[40, 100, 300, 130], [60, 140, 90, 170], [40, 200, 300, 230], [60, 240, 150, 270], [0, 0, 0, 0]]
}`

func TestParse(t *testing.T) {
	stream, err := Parse(strings.NewReader(sampleResult))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"1. 求和", "7", "2. 解方程", "x=1.2"}
	if len(stream) != len(want) {
		t.Fatalf("expected %d fragments, got %d", len(want), len(stream))
	}
	for i, text := range want {
		if stream[i].Text != text {
			t.Errorf("fragment %d text %q, want %q", i, stream[i].Text, text)
		}
	}
	if stream[1].Confidence != 0.91 {
		t.Errorf("fragment 1 confidence %g, want 0.91", stream[1].Confidence)
	}
	if stream[0].Box != [4]int{40, 100, 300, 130} {
		t.Errorf("fragment 0 box %v", stream[0].Box)
	}
}

func TestParseBadJSON(t *testing.T) {
	if _, err := Parse(strings.NewReader(`{"rec_texts": [`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFragmentsReadingOrder(t *testing.T) {
	res := Result{
		Texts:  []string{"right", "below", "left"},
		Scores: []float64{0.9, 0.9, 0.9},
		Boxes: [][4]int{
			{200, 105, 260, 130}, // same visual row as "left", further right
			{40, 200, 120, 230},
			{40, 100, 120, 130},
		},
	}
	stream := res.Fragments()
	got := []string{stream[0].Text, stream[1].Text, stream[2].Text}
	want := []string{"left", "right", "below"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reading order %v, want %v", got, want)
		}
	}
}

func TestFragmentsDriftingRows(t *testing.T) {
	// Top edges drift 10px per fragment: neighbours sit within the row
	// tolerance but the chain spans more than it. Rows anchor at their
	// topmost member, so the split point and the resulting order are
	// well-defined.
	res := Result{
		Texts:  []string{"a2", "a1", "b2", "b1"},
		Scores: []float64{0.9, 0.9, 0.9, 0.9},
		Boxes: [][4]int{
			{200, 100, 260, 130},
			{40, 110, 100, 140},
			{200, 120, 260, 150},
			{40, 130, 100, 160},
		},
	}
	stream := res.Fragments()
	want := []string{"a1", "a2", "b1", "b2"}
	for i := range want {
		if stream[i].Text != want[i] {
			got := make([]string, len(stream))
			for j, f := range stream {
				got[j] = f.Text
			}
			t.Fatalf("reading order %v, want %v", got, want)
		}
	}
}

func TestFragmentsShortScoresAndBoxes(t *testing.T) {
	res := Result{Texts: []string{"a", "b"}, Scores: []float64{0.5}}
	stream := res.Fragments()
	if len(stream) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(stream))
	}
	if stream[0].Confidence != 0.5 || stream[1].Confidence != 0 {
		t.Errorf("confidences %g, %g; want 0.5, 0", stream[0].Confidence, stream[1].Confidence)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  7.5  ", "7.5"},
		{"x=1.2", "x=1.2"},
		{"答案:B", "答案:B"},
		{"3×4÷2", "3×4÷2"},
		{"7#@!", "7"},
		{"…", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page_res.json")
	if err := os.WriteFile(path, []byte(sampleResult), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	stream, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stream) != 4 {
		t.Errorf("expected 4 fragments, got %d", len(stream))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
