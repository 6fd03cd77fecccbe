package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/colsolve/internal/solver"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *solver.Report) error
}

// Formats lists the names accepted by GetWriter.
var Formats = []string{"text", "json", "jsonl", "markdown", "yaml"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "jsonl":
		return &JSONWriter{Compact: true}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "yaml", "yml":
		return &YAMLWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *solver.Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
