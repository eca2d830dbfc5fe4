// Package report folds per-question results into student reports and
// student reports into a class-wide aggregate.
package report

import (
	"github.com/chen-albert-liang/grading-tool/internal/model"
)

// BuildStudentReport folds one student's question results, preserving
// their order from the template.
func BuildStudentReport(studentID string, results []model.QuestionResult) model.StudentReport {
	r := model.StudentReport{
		StudentID: studentID,
		Results:   results,
	}
	for _, qr := range results {
		r.TotalScore += qr.AwardedPoints
		r.MaxScore += qr.MaxPoints
	}
	if r.MaxScore > 0 {
		r.OverallAccuracy = r.TotalScore / r.MaxScore
	}
	return r
}

// BuildClassReport folds all student reports into class statistics and
// a per-question correctness breakdown. The fold is commutative: the
// outcome does not depend on student order. Zero students yields
// zero-valued statistics and an empty breakdown, not an error.
func BuildClassReport(students []model.StudentReport) model.ClassReport {
	report := model.ClassReport{
		PerQuestion: make(map[string]float64),
		Students:    students,
	}
	if report.Students == nil {
		report.Students = []model.StudentReport{}
	}
	n := len(students)
	report.Summary.TotalStudents = n
	if n == 0 {
		return report
	}

	var sumScore, sumAccuracy float64
	highest, lowest := students[0].TotalScore, students[0].TotalScore
	correct := make(map[string]int)
	for _, s := range students {
		sumScore += s.TotalScore
		sumAccuracy += s.OverallAccuracy
		if s.TotalScore > highest {
			highest = s.TotalScore
		}
		if s.TotalScore < lowest {
			lowest = s.TotalScore
		}
		for _, qr := range s.Results {
			if _, seen := correct[qr.QuestionID]; !seen {
				correct[qr.QuestionID] = 0
			}
			if qr.IsCorrect {
				correct[qr.QuestionID]++
			}
		}
	}

	report.Summary.AverageScore = sumScore / float64(n)
	report.Summary.AverageAccuracy = sumAccuracy / float64(n)
	report.Summary.HighestScore = highest
	report.Summary.LowestScore = lowest
	for id, c := range correct {
		report.PerQuestion[id] = float64(c) / float64(n)
	}
	return report
}
