// Package ocr loads PaddleOCR recognition results into fragment streams.
// The OCR engine itself runs out of process; this package only consumes
// the result JSON it writes per page.
package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/chen-albert-liang/grading-tool/internal/model"
)

// Result mirrors the fields of a PaddleOCR *_res.json file that grading
// consumes.
type Result struct {
	Texts  []string  `json:"rec_texts"`
	Scores []float64 `json:"rec_scores"`
	Boxes  [][4]int  `json:"rec_boxes"`
}

// Load reads a PaddleOCR result file and returns its fragments in
// reading order.
func Load(path string) (model.FragmentStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OCR result: %w", err)
	}
	defer f.Close()
	stream, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return stream, nil
}

// Parse decodes a PaddleOCR result and returns its fragments in
// reading order. Fragments whose cleaned text is empty are dropped.
func Parse(r io.Reader) (model.FragmentStream, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode OCR JSON: %w", err)
	}
	return res.Fragments(), nil
}

// Fragments converts the raw recognition arrays into a reading-ordered
// stream. Scores and boxes may be shorter than texts; missing entries
// default to zero.
func (res Result) Fragments() model.FragmentStream {
	var stream model.FragmentStream
	for i, text := range res.Texts {
		frag := model.Fragment{Text: CleanText(text)}
		if frag.Text == "" {
			continue
		}
		if i < len(res.Scores) {
			frag.Confidence = res.Scores[i]
		}
		if i < len(res.Boxes) {
			frag.Box = res.Boxes[i]
		}
		stream = append(stream, frag)
	}
	sortReadingOrder(stream)
	return stream
}

// artifactRe matches characters outside the working charset: word
// characters (any script), whitespace, and the math punctuation the
// grader understands.
var artifactRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.\-+=:：/^√×÷()（）\[\]{}、，,]`)

// CleanText strips common OCR artifacts and surrounding whitespace.
func CleanText(s string) string {
	return strings.TrimSpace(artifactRe.ReplaceAllString(s, ""))
}

// sortReadingOrder arranges fragments top to bottom, breaking near-ties
// left to right. Fragments are first clustered into visual rows: a row
// collects every fragment whose top edge is within rowTolerance pixels
// of the row's topmost member, then each row sorts left to right. The
// anchor keeps the order well-defined when top edges drift gradually.
const rowTolerance = 12

func sortReadingOrder(stream model.FragmentStream) {
	sort.SliceStable(stream, func(i, j int) bool {
		return stream[i].Box[1] < stream[j].Box[1]
	})
	sortRow := func(row model.FragmentStream) {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].Box[0] < row[j].Box[0]
		})
	}
	start := 0
	for i := 1; i < len(stream); i++ {
		if stream[i].Box[1]-stream[start].Box[1] > rowTolerance {
			sortRow(stream[start:i])
			start = i
		}
	}
	sortRow(stream[start:])
}
