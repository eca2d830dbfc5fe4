package grade

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Answer IS B", "answer is b"},
		{"collapse whitespace", "  3.14   米 ", "3.14 米"},
		{"fullwidth digits", "３.１４", "3.14"},
		{"fullwidth letters", "ＡＢＣ", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeFormula(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strip whitespace", "x ^ 2 + 1", "x^2+1"},
		{"fold operators", "3×4÷2", "3*4/2"},
		{"fullwidth punctuation", "ｘ＝１．２", "x=1.2"},
		{"fullwidth colon and parens", "甲：（96）", "甲:(96)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFormula(tt.in); got != tt.want {
				t.Errorf("NormalizeFormula(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"both empty", "", "", 1.0},
		{"identical", "x^2+2x+1", "x^2+2x+1", 1.0},
		{"disjoint", "abc", "xyz", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); got != tt.want {
				t.Errorf("Ratio(%q, %q) = %g, want %g", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatioSymmetricOrder(t *testing.T) {
	a, b := "x^2+1", "x^2+2x+1"
	if r1, r2 := Ratio(a, b), Ratio(b, a); r1 != r2 {
		t.Errorf("Ratio not symmetric: %g vs %g", r1, r2)
	}
}
