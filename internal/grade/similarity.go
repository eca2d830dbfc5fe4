package grade

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the sequence similarity of two strings in [0,1],
// computed rune-wise: twice the number of matching runes divided by the
// total length of both inputs. Identical strings score 1.0.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
