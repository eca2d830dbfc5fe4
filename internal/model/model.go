package model

// AnswerType classifies how an expected answer is compared during grading.
type AnswerType string

const (
	// AnswerNumeric is compared as a number within a tolerance.
	AnswerNumeric AnswerType = "numeric"
	// AnswerFormula is compared by normalized sequence similarity with credit tiers.
	AnswerFormula AnswerType = "formula"
	// AnswerText is compared by normalized sequence similarity against a threshold.
	AnswerText AnswerType = "text"
	// AnswerMultipleChoice is compared by the selected option letter.
	AnswerMultipleChoice AnswerType = "multiple_choice"
)

// Valid reports whether t is one of the known answer types.
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerNumeric, AnswerFormula, AnswerText, AnswerMultipleChoice:
		return true
	}
	return false
}

// Question is one entry of the answer key.
type Question struct {
	ID                  string     `json:"question_id"`
	Text                string     `json:"question_text"`
	ExpectedAnswer      string     `json:"expected_answer"`
	Type                AnswerType `json:"answer_type"`
	MaxPoints           float64    `json:"max_points"`
	Tolerance           float64    `json:"tolerance,omitempty"`
	SimilarityThreshold float64    `json:"similarity_threshold,omitempty"`
}

// Fragment is a single positioned piece of recognized text.
type Fragment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	// Box is the bounding rectangle as x1, y1, x2, y2 in image pixels.
	Box [4]int `json:"box"`
}

// FragmentStream is recognized text in top-to-bottom, left-to-right
// reading order, one page per stream.
type FragmentStream []Fragment

// AlignedAnswer attributes a student's raw text to one template question.
type AlignedAnswer struct {
	QuestionID string
	RawText    string
	Confidence float64
	// Answered is false when the question was never encountered in the
	// student's stream, as opposed to answered with unusable text.
	Answered bool
}

// QuestionResult is the graded outcome for one (student, question) pair.
type QuestionResult struct {
	QuestionID    string  `json:"question_id"`
	AwardedPoints float64 `json:"awarded_points"`
	MaxPoints     float64 `json:"max_points"`
	IsCorrect     bool    `json:"is_correct"`
	MatchedValue  string  `json:"matched_value,omitempty"`
	Feedback      string  `json:"feedback"`
}

// StudentReport is the per-student grading outcome, question order
// preserved from the template.
type StudentReport struct {
	StudentID       string           `json:"student_id"`
	Results         []QuestionResult `json:"per_question"`
	TotalScore      float64          `json:"total_score"`
	MaxScore        float64          `json:"max_score"`
	OverallAccuracy float64          `json:"overall_accuracy"`
}

// ClassSummary holds class-wide score statistics.
type ClassSummary struct {
	TotalStudents   int     `json:"total_students"`
	AverageScore    float64 `json:"average_score"`
	AverageAccuracy float64 `json:"average_accuracy"`
	HighestScore    float64 `json:"highest_score"`
	LowestScore     float64 `json:"lowest_score"`
}

// ClassReport is the final aggregate over all graded students.
type ClassReport struct {
	Summary ClassSummary `json:"summary"`
	// PerQuestion maps question id to the fraction of students that
	// answered it correctly.
	PerQuestion map[string]float64 `json:"per_question_breakdown"`
	Students    []StudentReport    `json:"student_results"`
}
