package report

import (
	"io"

	"github.com/nao1215/docsite/internal/model"
)

// Writer defines the interface for report output.
// Implementations write build results in various formats.
type Writer interface {
	// Write outputs the build report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.BuildReport) (int, error)

	// WriteComparison outputs the difference between two builds.
	WriteComparison(c *model.Comparison) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Format names accepted by New.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// New returns the writer for format, writing to output. Unknown formats get
// the text writer. version is embedded in JSON output.
func New(format string, output io.Writer, version string) Writer {
	switch format {
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}
