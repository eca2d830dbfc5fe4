// Package align attributes a student's OCR fragments to the questions
// of an answer template. Alignment is positional: fragments are walked
// in reading order and assigned to the most recently opened question
// header. The package is deliberately swappable; nothing downstream
// depends on how the attribution was made.
package align

import (
	"strings"

	"github.com/chen-albert-liang/grading-tool/internal/grade"
	"github.com/chen-albert-liang/grading-tool/internal/model"
	"github.com/chen-albert-liang/grading-tool/internal/template"
)

// promptEchoSimilarity is the similarity above which a fragment is
// treated as a re-read of the printed question text rather than the
// student's answer.
const promptEchoSimilarity = 0.85

// repeatSeparator joins text from repeated sightings of the same
// question id (OCR duplication or a re-attempted answer).
const repeatSeparator = "; "

// Aligner maps student fragment streams onto an answer template.
type Aligner struct {
	tpl *model.AnswerTemplate
}

// New creates an Aligner for the given template.
func New(tpl *model.AnswerTemplate) *Aligner {
	return &Aligner{tpl: tpl}
}

type attribution struct {
	parts []string
	confs []float64
}

// Align returns one AlignedAnswer per template question, in template
// order. Questions never encountered in the stream come back explicitly
// unanswered; questions encountered more than once have their text
// concatenated rather than overwritten.
func (a *Aligner) Align(stream model.FragmentStream) []model.AlignedAnswer {
	attrs := make(map[string]*attribution)
	var cur *attribution
	var curQuestion model.Question

	for _, frag := range stream {
		if id, rest, ok := template.MatchHeader(frag.Text); ok && a.tpl.Has(id) {
			q, _ := a.tpl.Get(id)
			if existing, seen := attrs[id]; seen {
				if len(existing.parts) > 0 {
					existing.parts = append(existing.parts, repeatSeparator)
				}
				cur = existing
			} else {
				cur = &attribution{}
				attrs[id] = cur
			}
			curQuestion = q
			if rest != "" && !echoesPrompt(rest, q.Text) {
				cur.parts = append(cur.parts, rest)
				cur.confs = append(cur.confs, frag.Confidence)
			}
			continue
		}
		if cur == nil {
			// Text before the first recognized header belongs to no question.
			continue
		}
		if echoesPrompt(frag.Text, curQuestion.Text) {
			continue
		}
		cur.parts = append(cur.parts, frag.Text)
		cur.confs = append(cur.confs, frag.Confidence)
	}

	answers := make([]model.AlignedAnswer, 0, a.tpl.Len())
	for _, q := range a.tpl.Questions() {
		ans := model.AlignedAnswer{QuestionID: q.ID}
		if attr, ok := attrs[q.ID]; ok {
			ans.Answered = true
			ans.RawText = joinParts(attr.parts)
			ans.Confidence = meanConfidence(attr.confs)
		}
		answers = append(answers, ans)
	}
	return answers
}

// echoesPrompt reports whether a fragment is a high-similarity re-read
// of the question's own printed text. This keeps the printed question
// from being graded as the student's answer.
func echoesPrompt(fragment, prompt string) bool {
	if prompt == "" {
		return false
	}
	return grade.Ratio(grade.NormalizeText(fragment), grade.NormalizeText(prompt)) >= promptEchoSimilarity
}

func joinParts(parts []string) string {
	joined := strings.Join(parts, " ")
	// The repeat separator is its own part; un-pad it.
	joined = strings.ReplaceAll(joined, " "+repeatSeparator+" ", repeatSeparator)
	return strings.TrimSpace(strings.TrimSuffix(joined, repeatSeparator))
}

func meanConfidence(confs []float64) float64 {
	if len(confs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confs {
		sum += c
	}
	return sum / float64(len(confs))
}
