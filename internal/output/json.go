package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/colsolve/internal/solver"
)

// JSONWriter outputs the full report as JSON. Compact writes a single line,
// for appending solves to a log.
type JSONWriter struct {
	Compact bool
}

func (j *JSONWriter) Write(w io.Writer, report *solver.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !j.Compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
