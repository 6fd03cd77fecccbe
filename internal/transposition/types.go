package transposition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCiphertext is returned when the input is not a run of A-Z letters.
var ErrInvalidCiphertext = errors.New("ciphertext must be at least two uppercase letters A-Z")

// Dimension is a rows x cols grid shape whose area equals the ciphertext length.
type Dimension struct {
	Rows int `json:"rows" yaml:"rows"`
	Cols int `json:"cols" yaml:"cols"`
}

func (d Dimension) String() string {
	return fmt.Sprintf("%dx%d", d.Rows, d.Cols)
}

// ColumnOrder lists grid column indices in the order they are read.
type ColumnOrder []int

// Identity returns the order 0, 1, ..., n-1.
func Identity(n int) ColumnOrder {
	o := make(ColumnOrder, n)
	for i := range o {
		o[i] = i
	}
	return o
}

// IsPermutation reports whether o contains every index in [0, n) exactly once.
func (o ColumnOrder) IsPermutation(n int) bool {
	if len(o) != n {
		return false
	}
	seen := make([]bool, n)
	for _, c := range o {
		if c < 0 || c >= n || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

func (o ColumnOrder) String() string {
	parts := make([]string, len(o))
	for i, c := range o {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func (o ColumnOrder) clone() ColumnOrder {
	c := make(ColumnOrder, len(o))
	copy(c, o)
	return c
}

// ParseColumnOrder parses a comma-separated list of zero-based column indices.
func ParseColumnOrder(s string) (ColumnOrder, error) {
	var o ColumnOrder
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid column index %q: %w", p, err)
		}
		o = append(o, n)
	}
	if len(o) == 0 {
		return nil, errors.New("empty column order")
	}
	return o, nil
}

// Candidate is one scored reading of the ciphertext.
type Candidate struct {
	Dimension     Dimension   `json:"dimension" yaml:"dimension"`
	ColumnOrder   ColumnOrder `json:"columnOrder" yaml:"columnOrder"`
	DecryptedText string      `json:"decryptedText" yaml:"decryptedText"`
	Scores        Scores      `json:"scores" yaml:"scores"`
	Score         float64     `json:"score" yaml:"score"`
	RefinedText   string      `json:"refinedText,omitempty" yaml:"refinedText,omitempty"`
}

// WithRefinement returns a copy of c carrying the refined text.
func (c Candidate) WithRefinement(text string) Candidate {
	c.ColumnOrder = c.ColumnOrder.clone()
	c.RefinedText = text
	return c
}

// Normalize uppercases s and drops everything that is not an ASCII letter.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		}
	}
	return b.String()
}

// Validate checks that text is already normalized and long enough to factor.
func Validate(text string) error {
	if len(text) < 2 {
		return fmt.Errorf("%w: got %d characters", ErrInvalidCiphertext, len(text))
	}
	for i := 0; i < len(text); i++ {
		if text[i] < 'A' || text[i] > 'Z' {
			return fmt.Errorf("%w: unexpected %q at offset %d", ErrInvalidCiphertext, text[i], i)
		}
	}
	return nil
}
