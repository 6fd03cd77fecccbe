package output

import (
	"fmt"
	"io"

	"github.com/dshills/colsolve/internal/solver"
	"gopkg.in/yaml.v3"
)

// YAMLWriter outputs the full report as YAML.
type YAMLWriter struct{}

func (y *YAMLWriter) Write(w io.Writer, report *solver.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("writing YAML: %w", err)
	}
	return enc.Close()
}
