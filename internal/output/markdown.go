package output

import (
	"fmt"
	"io"

	"github.com/dshills/colsolve/internal/solver"
)

// MarkdownWriter outputs a markdown report with a candidate table and one
// collapsible section per candidate.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *solver.Report) error {
	ew := &errWriter{w: w}

	ew.printf("## Columnar Transposition Solve\n\n")
	ew.printf("**Ciphertext** (%d letters): `%s`\n\n", report.Length, report.CipherText)

	if report.Status == solver.StatusNoDimensions {
		ew.printf("> %s\n", report.Message)
		return ew.err
	}

	ew.printf("Grids searched: %s. Orders scored: %d.\n\n", dimensionList(report.Dimensions), report.Evaluated)

	ew.printf("| # | Grid | Order | Score | Text |\n")
	ew.printf("|---|------|-------|-------|------|\n")
	for i, c := range report.Candidates {
		text := c.DecryptedText
		if c.RefinedText != "" {
			text = c.RefinedText
		}
		ew.printf("| %d | %s | `%s` | %.1f | %s |\n", i+1, c.Dimension, c.ColumnOrder, c.Score, mdEscape(text))
	}
	ew.println("")

	for i, c := range report.Candidates {
		ew.printf("<details>\n<summary>#%d %s order %s</summary>\n\n", i+1, c.Dimension, c.ColumnOrder)
		ew.printf("```\n%s\n```\n\n", c.DecryptedText)
		ew.printf("Bigrams: %d | Trigrams: %d | Doubled letters: %d | Score: %.2f\n\n",
			c.Scores.Bigrams, c.Scores.Trigrams, c.Scores.DoubleLetters, c.Score)
		if c.RefinedText != "" {
			ew.printf("> %s\n\n", c.RefinedText)
		}
		ew.printf("</details>\n\n")
	}

	if report.Refinement != nil {
		r := report.Refinement
		ew.printf("Oracle `%s`: %d attempted, %d accepted, %d rejected, %d malformed, %d unavailable, %d cached.\n\n",
			report.Oracle, r.Attempted, r.Accepted, r.Rejected, r.Malformed, r.Unavailable, r.Cached)
	}

	ew.printf("*Solved in %dms (search: %dms, oracle: %dms)*\n",
		report.Timing.TotalMs, report.Timing.SearchMs, report.Timing.RefineMs)

	return ew.err
}

func mdEscape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '|' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
