// Package output formats solve reports for display or machine consumption.
//
// Five formats are supported:
//   - text:     human-readable terminal output (default)
//   - json:     full structured JSON report
//   - jsonl:    the JSON report on a single line
//   - markdown: a summary table plus one section per candidate
//   - yaml:     the full report as YAML
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*solver.Report]. [WriteReport]
// handles destination selection.
package output
