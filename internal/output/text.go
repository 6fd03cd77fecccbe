package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/colsolve/internal/solver"
	"github.com/dshills/colsolve/internal/transposition"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *solver.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Columnar transposition solve: %d letters\n", report.Length)
	ew.println(strings.Repeat("─", 60))
	for _, line := range chunk(report.CipherText, 60) {
		ew.println(line)
	}
	ew.println(strings.Repeat("─", 60))

	if report.Status == solver.StatusNoDimensions {
		ew.printf("\n%s\n", report.Message)
		return ew.err
	}

	ew.printf("Grids: %s\n", dimensionList(report.Dimensions))
	ew.printf("Orders scored: %d | Candidates: %d", report.Evaluated, len(report.Candidates))
	if report.Refinement != nil {
		ew.printf(" | Refined: %d of %d (%s)", report.Refined(), report.Refinement.Attempted, report.Oracle)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	for i, c := range report.Candidates {
		ew.printf("\n#%-2d %s  order %s  score %.1f\n", i+1, c.Dimension, c.ColumnOrder, c.Score)
		ew.printf("    bigrams %d | trigrams %d | doubles %d\n",
			c.Scores.Bigrams, c.Scores.Trigrams, c.Scores.DoubleLetters)
		for _, line := range chunk(c.DecryptedText, 70) {
			ew.printf("    %s\n", line)
		}
		if c.RefinedText != "" {
			ew.println("  Refined:")
			for _, line := range wrapText(c.RefinedText, 70) {
				ew.printf("    %s\n", line)
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (search: %dms, oracle: %dms)\n",
		report.Timing.TotalMs, report.Timing.SearchMs, report.Timing.RefineMs)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func dimensionList(dims []transposition.Dimension) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

// chunk splits s into pieces of at most width bytes.
func chunk(s string, width int) []string {
	if len(s) <= width {
		return []string{s}
	}
	var out []string
	for len(s) > width {
		out = append(out, s[:width])
		s = s[width:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
