package report

import (
	"fmt"
	"testing"

	"github.com/chen-albert-liang/grading-tool/internal/model"
)

func batchTemplate(t *testing.T) *model.AnswerTemplate {
	t.Helper()
	tpl, err := model.NewTemplate([]model.Question{
		{ID: "1", Text: "求和", ExpectedAnswer: "7", Type: model.AnswerNumeric, MaxPoints: 2, Tolerance: 0.1},
		{ID: "2", Text: "解方程", ExpectedAnswer: "x=3", Type: model.AnswerFormula, MaxPoints: 4, SimilarityThreshold: 0.8},
	})
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}
	return tpl
}

func studentStream(answer1, answer2 string) model.FragmentStream {
	return model.FragmentStream{
		{Text: "1. 求和", Confidence: 0.95},
		{Text: answer1, Confidence: 0.9},
		{Text: "2. 解方程", Confidence: 0.95},
		{Text: answer2, Confidence: 0.9},
	}
}

func TestGradeStudent(t *testing.T) {
	tpl := batchTemplate(t)
	rep := GradeStudent(tpl, Student{ID: "alice", Stream: studentStream("7", "x=3")}, model.DefaultConfig())

	if rep.StudentID != "alice" {
		t.Errorf("student id %q, want %q", rep.StudentID, "alice")
	}
	if rep.TotalScore != 6 || rep.MaxScore != 6 {
		t.Errorf("scores %g/%g, want 6/6", rep.TotalScore, rep.MaxScore)
	}
	if len(rep.Results) != tpl.Len() {
		t.Fatalf("expected one result per question, got %d", len(rep.Results))
	}
	for _, qr := range rep.Results {
		if !qr.IsCorrect {
			t.Errorf("question %s should be correct: %s", qr.QuestionID, qr.Feedback)
		}
	}
}

func TestGradeStudentBadQuestionDegrades(t *testing.T) {
	// An expected answer with no numeric value cannot be matched; the
	// question degrades to zero credit but the rest still grades.
	tpl, err := model.NewTemplate([]model.Question{
		{ID: "1", ExpectedAnswer: "7", Type: model.AnswerNumeric, MaxPoints: 2},
		{ID: "2", ExpectedAnswer: "见解析", Type: model.AnswerNumeric, MaxPoints: 4},
	})
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}

	rep := GradeStudent(tpl, Student{ID: "bob", Stream: studentStream("7", "3")}, model.DefaultConfig())
	if len(rep.Results) != 2 {
		t.Fatalf("expected both questions reported, got %d", len(rep.Results))
	}
	if rep.Results[0].AwardedPoints != 2 {
		t.Errorf("question 1 should still be graded, got %+v", rep.Results[0])
	}
	if rep.Results[1].AwardedPoints != 0 || rep.Results[1].Feedback == "" {
		t.Errorf("bad question should degrade to zero credit with feedback, got %+v", rep.Results[1])
	}
}

func TestGradeClassSequentialAndParallelAgree(t *testing.T) {
	tpl := batchTemplate(t)
	var students []Student
	for i := 0; i < 20; i++ {
		answer := "7"
		if i%3 == 0 {
			answer = "100"
		}
		students = append(students, Student{
			ID:     fmt.Sprintf("s%02d", i),
			Stream: studentStream(answer, "x=3"),
		})
	}

	seq := model.DefaultConfig()
	seq.Workers = 1
	par := model.DefaultConfig()
	par.Workers = 4

	got := GradeClass(tpl, students, par)
	want := GradeClass(tpl, students, seq)

	if got.Summary != want.Summary {
		t.Errorf("parallel summary %+v, want %+v", got.Summary, want.Summary)
	}
	if len(got.Students) != len(want.Students) {
		t.Fatalf("student count %d, want %d", len(got.Students), len(want.Students))
	}
	for i := range got.Students {
		if got.Students[i].StudentID != want.Students[i].StudentID {
			t.Errorf("report %d out of order: %s, want %s",
				i, got.Students[i].StudentID, want.Students[i].StudentID)
		}
		if got.Students[i].TotalScore != want.Students[i].TotalScore {
			t.Errorf("student %s score %g, want %g",
				got.Students[i].StudentID, got.Students[i].TotalScore, want.Students[i].TotalScore)
		}
	}
}

func TestGradeClassEmpty(t *testing.T) {
	tpl := batchTemplate(t)
	rep := GradeClass(tpl, nil, model.DefaultConfig())
	if rep.Summary.TotalStudents != 0 {
		t.Errorf("expected zero students, got %+v", rep.Summary)
	}
}

func TestFailedStudentReport(t *testing.T) {
	tpl := batchTemplate(t)
	rep := failedStudentReport(tpl, "crashed", "grading failed: boom")
	if rep.TotalScore != 0 || rep.MaxScore != 6 {
		t.Errorf("failed report scores %g/%g, want 0/6", rep.TotalScore, rep.MaxScore)
	}
	for _, qr := range rep.Results {
		if qr.Feedback != "grading failed: boom" {
			t.Errorf("question %s feedback %q", qr.QuestionID, qr.Feedback)
		}
	}
}
