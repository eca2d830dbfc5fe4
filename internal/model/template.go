package model

import (
	"encoding/json"
	"fmt"
)

// AnswerTemplate is the ordered answer key built from the teacher's page.
// It is immutable once built and safe to share across concurrent grading
// runs.
type AnswerTemplate struct {
	questions []Question
	byID      map[string]int
}

// NewTemplate builds a template from questions in page order. Question
// ids must be unique and max points positive.
func NewTemplate(questions []Question) (*AnswerTemplate, error) {
	t := &AnswerTemplate{
		questions: make([]Question, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	copy(t.questions, questions)
	for i, q := range t.questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d has empty id", i)
		}
		if _, dup := t.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %s", q.ID)
		}
		if q.MaxPoints <= 0 {
			return nil, fmt.Errorf("question %s has non-positive max points %g", q.ID, q.MaxPoints)
		}
		if !q.Type.Valid() {
			return nil, fmt.Errorf("question %s has unknown answer type %q", q.ID, q.Type)
		}
		t.byID[q.ID] = i
	}
	return t, nil
}

// Questions returns the questions in page order. The returned slice is a
// copy; the template itself never changes.
func (t *AnswerTemplate) Questions() []Question {
	qs := make([]Question, len(t.questions))
	copy(qs, t.questions)
	return qs
}

// Get returns the question with the given id.
func (t *AnswerTemplate) Get(id string) (Question, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Question{}, false
	}
	return t.questions[i], true
}

// Has reports whether the template contains the given question id.
func (t *AnswerTemplate) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// Len returns the number of questions.
func (t *AnswerTemplate) Len() int {
	return len(t.questions)
}

// MaxScore returns the sum of max points over all questions.
func (t *AnswerTemplate) MaxScore() float64 {
	var sum float64
	for _, q := range t.questions {
		sum += q.MaxPoints
	}
	return sum
}

// MarshalJSON encodes the template as a question array, preserving page
// order through round trips.
func (t *AnswerTemplate) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.questions)
}

// UnmarshalJSON decodes a question array and revalidates it.
func (t *AnswerTemplate) UnmarshalJSON(data []byte) error {
	var qs []Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return err
	}
	nt, err := NewTemplate(qs)
	if err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	*t = *nt
	return nil
}
