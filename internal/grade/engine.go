// Package grade scores aligned answers against their template
// questions. Comparison is string and number level only: numeric
// tolerance, normalized-formula similarity, text similarity, and
// option matching.
package grade

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/chen-albert-liang/grading-tool/internal/model"
)

// UnknownAnswerTypeError reports a question whose answer type the
// engine cannot dispatch on. It is fatal for that question's result
// only; the rest of the student's report still gets graded.
type UnknownAnswerTypeError struct {
	QuestionID string
	Type       model.AnswerType
}

func (e *UnknownAnswerTypeError) Error() string {
	return fmt.Sprintf("question %s: unknown answer type %q", e.QuestionID, e.Type)
}

// Engine grades one aligned answer at a time. It holds no mutable
// state; a single Engine is safe for concurrent use.
type Engine struct {
	cfg model.Config
}

// New creates an Engine with the given configuration.
func New(cfg model.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Grade scores one aligned answer against its question. A zero-credit
// result with explanatory feedback is returned alongside any error, so
// callers can record the result and keep grading.
func (e *Engine) Grade(ans model.AlignedAnswer, q model.Question) (model.QuestionResult, error) {
	res := model.QuestionResult{
		QuestionID: q.ID,
		MaxPoints:  q.MaxPoints,
	}
	if !ans.Answered {
		res.Feedback = "unanswered"
		return res, nil
	}

	switch q.Type {
	case model.AnswerNumeric:
		e.gradeNumeric(ans, q, &res)
	case model.AnswerFormula:
		e.gradeFormula(ans, q, &res)
	case model.AnswerText:
		e.gradeText(ans, q, &res)
	case model.AnswerMultipleChoice:
		e.gradeMultipleChoice(ans, q, &res)
	default:
		err := &UnknownAnswerTypeError{QuestionID: q.ID, Type: q.Type}
		res.Feedback = err.Error()
		return res, err
	}
	return res, nil
}

var numberRe = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// extractNumber pulls the first decimal number out of s, after NFKC
// folding so fullwidth digits parse too.
func extractNumber(s string) (float64, bool) {
	m := numberRe.FindString(NormalizeText(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (e *Engine) gradeNumeric(ans model.AlignedAnswer, q model.Question, res *model.QuestionResult) {
	got, ok := extractNumber(ans.RawText)
	if !ok {
		res.Feedback = "no numeric value found"
		return
	}
	want, ok := extractNumber(q.ExpectedAnswer)
	if !ok {
		res.Feedback = fmt.Sprintf("expected answer %q has no numeric value", q.ExpectedAnswer)
		return
	}

	tol := q.Tolerance
	if tol == 0 {
		tol = e.cfg.Tolerance
	}
	res.MatchedValue = strconv.FormatFloat(got, 'f', -1, 64)
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	// The boundary is exclusive: a value exactly tolerance away scores
	// zero. An exact match is always correct, whatever the tolerance.
	if diff < tol || diff == 0 {
		res.IsCorrect = true
		res.AwardedPoints = q.MaxPoints
		res.Feedback = "correct"
		return
	}
	res.Feedback = fmt.Sprintf("expected %v, got %v", want, got)
}

func (e *Engine) gradeFormula(ans model.AlignedAnswer, q model.Question, res *model.QuestionResult) {
	student := NormalizeFormula(ans.RawText)
	expected := NormalizeFormula(q.ExpectedAnswer)
	sim := Ratio(student, expected)
	res.MatchedValue = student

	full := q.SimilarityThreshold
	if full == 0 {
		full = e.cfg.FullCreditThreshold
	}
	partial := e.cfg.PartialCreditThreshold
	if partial > full {
		partial = full
	}
	switch {
	case sim >= full:
		res.IsCorrect = true
		res.AwardedPoints = q.MaxPoints
		res.Feedback = fmt.Sprintf("correct formula (similarity %.2f)", sim)
	case e.cfg.PartialCredit && sim >= partial:
		res.AwardedPoints = q.MaxPoints * 0.5
		res.Feedback = fmt.Sprintf("partially correct (similarity %.2f)", sim)
	default:
		res.Feedback = fmt.Sprintf("formula does not match (similarity %.2f)", sim)
	}
}

func (e *Engine) gradeText(ans model.AlignedAnswer, q model.Question, res *model.QuestionResult) {
	student := NormalizeText(ans.RawText)
	expected := NormalizeText(q.ExpectedAnswer)
	sim := Ratio(student, expected)
	res.MatchedValue = student

	threshold := q.SimilarityThreshold
	if threshold == 0 {
		threshold = e.cfg.SimilarityThreshold
	}
	if sim >= threshold {
		res.IsCorrect = true
		res.AwardedPoints = q.MaxPoints
		res.Feedback = fmt.Sprintf("correct (similarity %.2f)", sim)
		return
	}
	res.Feedback = fmt.Sprintf("answer does not match (similarity %.2f)", sim)
}

var choiceRe = regexp.MustCompile(`\b([A-Da-d])\b`)

// extractChoice pulls the first standalone option letter out of s.
func extractChoice(s string) (string, bool) {
	m := choiceRe.FindStringSubmatch(NormalizeText(s))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (e *Engine) gradeMultipleChoice(ans model.AlignedAnswer, q model.Question, res *model.QuestionResult) {
	got, ok := extractChoice(ans.RawText)
	if !ok {
		res.Feedback = "no option selected"
		return
	}
	want, ok := extractChoice(q.ExpectedAnswer)
	if !ok {
		res.Feedback = fmt.Sprintf("expected answer %q has no option letter", q.ExpectedAnswer)
		return
	}
	res.MatchedValue = got
	if got == want {
		res.IsCorrect = true
		res.AwardedPoints = q.MaxPoints
		res.Feedback = "correct option"
		return
	}
	res.Feedback = fmt.Sprintf("expected option %s, got %s", want, got)
}
