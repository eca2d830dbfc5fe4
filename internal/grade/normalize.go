package grade

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalization is script-agnostic: NFKC folds fullwidth digits and
// punctuation, which scanned CJK homework produces constantly, without
// touching the comparison semantics for Latin text.

// NormalizeText lowercases, NFKC-folds, and collapses runs of
// whitespace to a single space.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

var formulaReplacer = strings.NewReplacer("×", "*", "÷", "/", "：", ":", "（", "(", "）", ")")

// NormalizeFormula lowercases, NFKC-folds, unifies operator variants,
// and strips all whitespace so spacing differences never affect the
// similarity ratio.
func NormalizeFormula(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = formulaReplacer.Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
