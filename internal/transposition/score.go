package transposition

// Default sub-score weights. Trigram evidence counts most since a chance
// trigram match is rarer than a chance bigram.
const (
	DefaultBigramWeight       = 0.4
	DefaultTrigramWeight      = 0.5
	DefaultDoubleLetterWeight = 0.1
)

// Points awarded per reference hit before weighting.
const (
	BigramPoints  = 1
	TrigramPoints = 2
)

var commonBigrams = newSet(
	"TH", "HE", "AN", "IN", "ER", "RE", "ON", "AT", "ES", "OR",
	"TE", "OF", "ED", "IS", "IT", "AL", "AR", "ST", "TO", "NT",
)

var commonTrigrams = newSet(
	"THE", "AND", "ING", "ENT", "ION", "FOR", "NDE",
	"HAS", "NCE", "EDT", "TIS", "OFT", "STH", "MEN",
)

// doubledLetters holds the letters whose doubling counts as evidence.
var doubledLetters = [26]bool{
	'L' - 'A': true, 'S' - 'A': true, 'E' - 'A': true, 'T' - 'A': true,
	'O' - 'A': true, 'M' - 'A': true, 'F' - 'A': true, 'P' - 'A': true,
	'D' - 'A': true, 'G' - 'A': true, 'C' - 'A': true, 'R' - 'A': true,
}

func newSet(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// Scores is the unweighted breakdown of a reading's n-gram evidence.
type Scores struct {
	Bigrams       int `json:"bigrams" yaml:"bigrams"`
	Trigrams      int `json:"trigrams" yaml:"trigrams"`
	DoubleLetters int `json:"doubleLetters" yaml:"doubleLetters"`
}

// Weights combines Scores into a single total.
type Weights struct {
	Bigram       float64
	Trigram      float64
	DoubleLetter float64
}

// DefaultWeights returns the 0.4 / 0.5 / 0.1 weighting.
func DefaultWeights() Weights {
	return Weights{
		Bigram:       DefaultBigramWeight,
		Trigram:      DefaultTrigramWeight,
		DoubleLetter: DefaultDoubleLetterWeight,
	}
}

// Total returns the weighted sum of s. No length normalization is applied.
func (w Weights) Total(s Scores) float64 {
	return w.Bigram*float64(s.Bigrams) + w.Trigram*float64(s.Trigrams) + w.DoubleLetter*float64(s.DoubleLetters)
}

// Score computes the n-gram breakdown for an uppercase reading.
func Score(text string) Scores {
	var s Scores
	for i := 0; i+2 <= len(text); i++ {
		if _, ok := commonBigrams[text[i:i+2]]; ok {
			s.Bigrams += BigramPoints
		}
		if i+3 <= len(text) {
			if _, ok := commonTrigrams[text[i:i+3]]; ok {
				s.Trigrams += TrigramPoints
			}
		}
	}
	s.DoubleLetters = countDoubles(text)
	return s
}

// countDoubles counts non-overlapping doubled letters, so "LLL" is one
// occurrence and "LLLL" two.
func countDoubles(text string) int {
	n := 0
	for i := 0; i+1 < len(text); {
		c := text[i]
		if c == text[i+1] && c >= 'A' && c <= 'Z' && doubledLetters[c-'A'] {
			n++
			i += 2
			continue
		}
		i++
	}
	return n
}
