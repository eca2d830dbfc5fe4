package report

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/chen-albert-liang/grading-tool/internal/align"
	"github.com/chen-albert-liang/grading-tool/internal/grade"
	"github.com/chen-albert-liang/grading-tool/internal/model"
)

// Student pairs a student id with that student's page fragments.
type Student struct {
	ID     string
	Stream model.FragmentStream
}

// GradeStudent aligns and grades one student against the template.
// Per-question failures (unknown answer type, unparseable numbers)
// degrade to zero-credit results with feedback instead of aborting the
// report.
func GradeStudent(tpl *model.AnswerTemplate, student Student, cfg model.Config) model.StudentReport {
	aligner := align.New(tpl)
	engine := grade.New(cfg)

	answers := aligner.Align(student.Stream)
	results := make([]model.QuestionResult, 0, len(answers))
	for _, ans := range answers {
		q, _ := tpl.Get(ans.QuestionID)
		res, err := engine.Grade(ans, q)
		if err != nil {
			slog.Warn("question failed to grade",
				"student", student.ID, "question", q.ID, "error", err)
		}
		results = append(results, res)
	}
	return BuildStudentReport(student.ID, results)
}

// GradeClass grades every student against the shared read-only
// template and folds the results. Students are independent, so the map
// runs on up to cfg.Workers goroutines; reports keep the input order
// regardless of completion order. A panic while grading one student is
// recorded as that student's failure and does not stop the batch.
func GradeClass(tpl *model.AnswerTemplate, students []Student, cfg model.Config) model.ClassReport {
	reports := make([]model.StudentReport, len(students))

	workers := cfg.Workers
	if workers <= 1 || len(students) <= 1 {
		for i, s := range students {
			reports[i] = gradeStudentIsolated(tpl, s, cfg)
		}
		return BuildClassReport(reports)
	}
	if workers > len(students) {
		workers = len(students)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reports[i] = gradeStudentIsolated(tpl, students[i], cfg)
			}
		}()
	}
	for i := range students {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return BuildClassReport(reports)
}

func gradeStudentIsolated(tpl *model.AnswerTemplate, student Student, cfg model.Config) (rep model.StudentReport) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("student grading failed", "student", student.ID, "panic", r)
			rep = failedStudentReport(tpl, student.ID, fmt.Sprintf("grading failed: %v", r))
		}
	}()
	return GradeStudent(tpl, student, cfg)
}

// failedStudentReport records a student whose grading run failed
// outright: zero credit on every question, with the failure as
// feedback.
func failedStudentReport(tpl *model.AnswerTemplate, studentID, feedback string) model.StudentReport {
	questions := tpl.Questions()
	results := make([]model.QuestionResult, 0, len(questions))
	for _, q := range questions {
		results = append(results, model.QuestionResult{
			QuestionID: q.ID,
			MaxPoints:  q.MaxPoints,
			Feedback:   feedback,
		})
	}
	return BuildStudentReport(studentID, results)
}
