// Package report renders build reports and build comparisons.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - FullJSONWriter: JSON output wrapped with the docsite version and a summary
//   - MarkdownWriter: Markdown for pull request comments and CI job summaries
//
// The report data lives in the model package; writers only format it.
// New picks a writer by format name.
package report
