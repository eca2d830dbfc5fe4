// Package template builds structured answer keys from a teacher's OCR
// fragment stream.
package template

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/chen-albert-liang/grading-tool/internal/model"
)

// ErrNoQuestions is returned when the teacher's stream contains no
// recognizable question headers, leaving nothing to grade against.
var ErrNoQuestions = errors.New("no question headers found in fragment stream")

// Builder turns a teacher's fragment stream into an answer template.
type Builder struct {
	cfg model.Config
}

// NewBuilder creates a Builder with the given grading configuration.
func NewBuilder(cfg model.Config) *Builder {
	return &Builder{cfg: cfg}
}

type block struct {
	id    string
	parts []string
}

// Build segments the stream into question blocks and produces the
// answer template. Blocks without a detectable answer are kept as
// text-type questions with an empty expected answer rather than
// dropped.
func (b *Builder) Build(stream model.FragmentStream) (*model.AnswerTemplate, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("grading config: %w", err)
	}

	var blocks []*block
	byID := make(map[string]*block)
	var cur *block
	for _, frag := range stream {
		if id, rest, ok := MatchHeader(frag.Text); ok {
			if existing, dup := byID[id]; dup {
				// OCR re-read of an already open header.
				cur = existing
			} else {
				cur = &block{id: id}
				byID[id] = cur
				blocks = append(blocks, cur)
			}
			if rest != "" {
				cur.parts = append(cur.parts, rest)
			}
			continue
		}
		if cur == nil {
			// Page preamble before the first question.
			continue
		}
		cur.parts = append(cur.parts, frag.Text)
	}
	if len(blocks) == 0 {
		return nil, ErrNoQuestions
	}

	questions := make([]model.Question, 0, len(blocks))
	for i, blk := range blocks {
		q := b.buildQuestion(blk, i, len(blocks))
		slog.Debug("extracted question",
			"id", q.ID, "type", q.Type, "answer", q.ExpectedAnswer, "points", q.MaxPoints)
		questions = append(questions, q)
	}
	return model.NewTemplate(questions)
}

func (b *Builder) buildQuestion(blk *block, index, total int) model.Question {
	prompt, answer := splitPromptAnswer(blk.parts)

	q := model.Question{
		ID:             blk.id,
		Text:           prompt,
		ExpectedAnswer: answer,
		Type:           inferType(answer, prompt),
		MaxPoints:      b.pointsFor(blk.id, index, total),
	}
	switch q.Type {
	case model.AnswerNumeric:
		q.Tolerance = b.cfg.Tolerance
	case model.AnswerFormula, model.AnswerText:
		q.SimilarityThreshold = b.cfg.SimilarityThreshold
	}
	return q
}

// answerDelimRe marks where the expected answer starts inside a block.
var answerDelimRe = regexp.MustCompile(`(?i)\b(?:answer|ans)\b\s*[:：]|答案\s*[:：]?|答\s*[:：]`)

// splitPromptAnswer separates a block's fragments into question text and
// the expected-answer candidate. An explicit answer delimiter wins;
// otherwise the trailing run of answer-looking fragments is taken.
func splitPromptAnswer(parts []string) (prompt, answer string) {
	for i, p := range parts {
		if loc := answerDelimRe.FindStringIndex(p); loc != nil {
			promptParts := append(append([]string{}, parts[:i]...), strings.TrimSpace(p[:loc[0]]))
			answerParts := append([]string{strings.TrimSpace(p[loc[1]:])}, parts[i+1:]...)
			return joinNonEmpty(promptParts), joinNonEmpty(answerParts)
		}
	}

	// No delimiter: take the trailing run of purely mathematical
	// fragments as the answer. Failing that, a short digit-bearing
	// final fragment still counts, but only when the block has other
	// fragments left to serve as the prompt.
	split := len(parts)
	for split > 0 && mathOnly(parts[split-1]) {
		split--
	}
	if split == len(parts) && len(parts) > 1 && shortWithDigit(parts[len(parts)-1]) {
		split--
	}
	if split == len(parts) {
		return joinNonEmpty(parts), ""
	}
	return joinNonEmpty(parts[:split]), joinNonEmpty(parts[split:])
}

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " ")
}

var mathOnlyRe = regexp.MustCompile(`^[\d.\-+=:：/^√×÷()（）\[\]{}xX\s]+$`)

// mathOnly reports whether a fragment consists solely of digits and
// mathematical symbols. Such fragments read as worked answers, never as
// prompt text.
func mathOnly(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && mathOnlyRe.MatchString(s)
}

// shortWithDigit reports whether a fragment is short enough, and
// numeric enough, to plausibly be an answer written in mixed script,
// such as a counted quantity.
func shortWithDigit(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len([]rune(s)) > 15 {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// optionRe matches one lettered choice such as "A)" or "B.".
var optionRe = regexp.MustCompile(`[A-D][).．、]`)

// hasOptionList reports whether the prompt carries an explicit option
// list: at least two distinct choice letters.
func hasOptionList(prompt string) bool {
	seen := make(map[byte]bool)
	for _, m := range optionRe.FindAllString(prompt, -1) {
		seen[m[0]] = true
	}
	return len(seen) >= 2
}

// inferType classifies the expected-answer candidate. Multiple choice is
// assigned only from an explicit option list in the prompt, never from
// the answer alone.
func inferType(answer, prompt string) model.AnswerType {
	if answer == "" {
		return model.AnswerText
	}
	if hasOptionList(prompt) {
		return model.AnswerMultipleChoice
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(answer), 64); err == nil {
		return model.AnswerNumeric
	}
	if strings.ContainsAny(answer, "+-*/=^√×÷:：") {
		return model.AnswerFormula
	}
	return model.AnswerText
}

// pointsFor estimates a question's max points: an explicit override
// wins, otherwise the position of the question in the assignment picks
// a value from the configured non-decreasing curve.
func (b *Builder) pointsFor(id string, index, total int) float64 {
	if p, ok := b.cfg.PointValues[id]; ok {
		return p
	}
	curve := b.cfg.PointCurve
	return curve[index*len(curve)/total]
}
