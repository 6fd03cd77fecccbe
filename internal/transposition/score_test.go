package transposition

import (
	"math"
	"testing"
)

func TestScore_Breakdown(t *testing.T) {
	tests := []struct {
		text string
		want Scores
	}{
		{"", Scores{}},
		{"T", Scores{}},
		{"THE", Scores{Bigrams: 2, Trigrams: 2}},
		{"XQZJ", Scores{}},
		{"BALLOON", Scores{Bigrams: 2, DoubleLetters: 2}}, // AL, ON
		{"LLL", Scores{DoubleLetters: 1}},
		{"LLLL", Scores{DoubleLetters: 2}},
		{"AAHH", Scores{}},
		{"ANDTHE", Scores{Bigrams: 3, Trigrams: 4}}, // AN TH HE; AND THE
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Score(tt.text)
			if got != tt.want {
				t.Errorf("Score(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestWeights_Total(t *testing.T) {
	w := DefaultWeights()
	got := w.Total(Scores{Bigrams: 2, Trigrams: 2, DoubleLetters: 3})
	want := 0.4*2 + 0.5*2 + 0.1*3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Total = %v, want %v", got, want)
	}
}

func TestScore_TrigramMonotonic(t *testing.T) {
	base := "XQZJXQ"
	before := Score(base)
	after := Score(base + "THE")
	if after.Trigrams-before.Trigrams != TrigramPoints {
		t.Errorf("appending THE raised trigrams by %d, want %d",
			after.Trigrams-before.Trigrams, TrigramPoints)
	}
	if after.DoubleLetters != before.DoubleLetters {
		t.Error("appending THE should not change doubled letters")
	}
	w := DefaultWeights()
	if w.Total(after) <= w.Total(before) {
		t.Error("total score should strictly increase")
	}
}
