package refine

import (
	"strings"
	"unicode"
)

// Similarity compares two texts position by position after dropping
// everything but letters and digits and uppercasing. The result is the
// number of matching positions divided by the longer length.
func Similarity(a, b string) float64 {
	ca, cb := clean(a), clean(b)
	if len(ca) == 0 && len(cb) == 0 {
		return 1
	}
	if len(ca) == 0 || len(cb) == 0 {
		return 0
	}
	n := min(len(ca), len(cb))
	matches := 0
	for i := 0; i < n; i++ {
		if ca[i] == cb[i] {
			matches++
		}
	}
	return float64(matches) / float64(max(len(ca), len(cb)))
}

func clean(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return out
}
