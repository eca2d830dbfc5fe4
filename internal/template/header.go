package template

import (
	"regexp"
	"strings"
)

// Question headers come in a few printed shapes: "(1)", "（2）", "1.1",
// "1)", "3.". Decimal ids need care because a bare decimal fragment is
// far more likely to be a numeric answer than a header.
var (
	parenHeaderRe  = regexp.MustCompile(`^[（(](\d+(?:\.\d+)?)[)）][.、:：]?\s*(.*)$`)
	decimalIDRe    = regexp.MustCompile(`^\d+\.\d+(?:$|[^\d])`)
	decimalDelimRe = regexp.MustCompile(`^(\d+\.\d+)[.)）、:：]\s*(.*)$`)
	decimalSpaceRe = regexp.MustCompile(`^(\d+\.\d+)\s+(.+)$`)
	intHeaderRe    = regexp.MustCompile(`^(\d+)[.)）、:：]\s*(.*)$`)
)

// MatchHeader reports whether a fragment starts with a question-number
// header. It returns the question id and the remainder of the fragment
// after the header. A fragment consisting of nothing but a decimal
// number is never a header: it reads as a numeric answer.
func MatchHeader(text string) (id, rest string, ok bool) {
	s := strings.TrimSpace(text)
	if m := parenHeaderRe.FindStringSubmatch(s); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	if decimalIDRe.MatchString(s) {
		if m := decimalDelimRe.FindStringSubmatch(s); m != nil {
			return m[1], strings.TrimSpace(m[2]), true
		}
		if m := decimalSpaceRe.FindStringSubmatch(s); m != nil {
			return m[1], strings.TrimSpace(m[2]), true
		}
		return "", "", false
	}
	if m := intHeaderRe.FindStringSubmatch(s); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	return "", "", false
}
