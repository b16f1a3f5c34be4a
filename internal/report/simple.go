package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/model"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// SimpleWriter outputs human-readable text reports for terminal display.
// It uses plain ASCII formatting so the output can be piped to files.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to report are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output: the performed steps and the policy of
// every broken link.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the build report in human-readable format.
func (w *SimpleWriter) Write(report *model.BuildReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeBrokenLinks(&sb, report)
	w.writeStylesheets(&sb, report)
	w.writeErrors(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with build information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.BuildReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      DOCSITE BUILD REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:      %s\n", report.Site))
	sb.WriteString(fmt.Sprintf("URL:       %s\n", report.SiteURL))
	if report.ConfigPath != "" {
		sb.WriteString(fmt.Sprintf("Config:    %s\n", report.ConfigPath))
	}
	sb.WriteString(fmt.Sprintf("Started:   %s\n", report.StartedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", report.Duration().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Status:    %s\n", strings.ToUpper(report.Outcome())))
	if w.verbose {
		sb.WriteString(fmt.Sprintf("Steps:     %s\n", strings.Join(report.PerformedSteps, ", ")))
	}
	sb.WriteString("\n")
}

// writeSummary writes the counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.BuildReport) {
	writeSection(sb, "SUMMARY")

	sb.WriteString(fmt.Sprintf("  Documents:      %d\n", report.Docs))
	sb.WriteString(fmt.Sprintf("  Pages scanned:  %d\n", report.PagesChecked))
	sb.WriteString(fmt.Sprintf("  Links checked:  %d\n", report.LinksChecked))
	sb.WriteString(fmt.Sprintf("  Broken (fail):  %d\n", len(report.Failures())))
	sb.WriteString(fmt.Sprintf("  Broken (warn):  %d\n", len(report.Warnings())))
	sb.WriteString(fmt.Sprintf("  Ignored:        %d\n", report.Ignored))
	sb.WriteString(fmt.Sprintf("  By kind:        %s=%d %s=%d\n",
		config.LinkKindHyperlink, report.CountBroken(config.LinkKindHyperlink),
		config.LinkKindDocReference, report.CountBroken(config.LinkKindDocReference)))
	sb.WriteString("\n")
}

// writeBrokenLinks writes the broken links grouped by policy, failures first.
func (w *SimpleWriter) writeBrokenLinks(sb *strings.Builder, report *model.BuildReport) {
	if len(report.BrokenLinks) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "BROKEN LINKS")

	if len(report.BrokenLinks) == 0 {
		sb.WriteString("  No broken links\n\n")
		return
	}

	groups := []struct {
		indicator string
		policy    config.LinkPolicy
		links     []model.BrokenLink
	}{
		{"!!", config.PolicyFail, report.Failures()},
		{"!", config.PolicyWarn, report.Warnings()},
	}
	for _, g := range groups {
		if len(g.links) == 0 && !w.showEmpty {
			continue
		}
		sb.WriteString(fmt.Sprintf("[%s] %s\n", g.indicator, strings.ToUpper(g.policy.String())))
		if len(g.links) == 0 {
			sb.WriteString("  None\n\n")
			continue
		}
		for _, l := range g.links {
			sb.WriteString(fmt.Sprintf("  * %s\n", l.Location()))
			sb.WriteString(fmt.Sprintf("    %s: %s\n", l.Kind, l.Target))
		}
		sb.WriteString("\n")
	}
}

// writeStylesheets writes the integrity verification results.
func (w *SimpleWriter) writeStylesheets(sb *strings.Builder, report *model.BuildReport) {
	if len(report.Stylesheets) == 0 {
		return
	}

	writeSection(sb, "STYLESHEETS")

	for _, s := range report.Stylesheets {
		if s.Verified {
			sb.WriteString(fmt.Sprintf("  [ok] %s (%s)\n", s.Href, s.Algorithm))
			continue
		}
		sb.WriteString(fmt.Sprintf("  [x]  %s\n", s.Href))
		sb.WriteString(fmt.Sprintf("       %s\n", s.Error))
	}
	sb.WriteString("\n")
}

// writeErrors writes the errors that failed the build.
func (w *SimpleWriter) writeErrors(sb *strings.Builder, report *model.BuildReport) {
	if len(report.Errors) == 0 {
		return
	}

	writeSection(sb, "ERRORS")

	for _, e := range report.Errors {
		for i, line := range strings.Split(e, "\n") {
			if i == 0 {
				sb.WriteString(fmt.Sprintf("  - %s\n", line))
			} else {
				sb.WriteString(fmt.Sprintf("    %s\n", line))
			}
		}
	}
	sb.WriteString("\n")
}

// WriteComparison outputs a build comparison in human-readable format.
func (w *SimpleWriter) WriteComparison(c *model.Comparison) (int, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\nBuild comparison: %s\n", c.Site))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Trend: %s\n\n", strings.ToUpper(c.Trend)))

	sb.WriteString(fmt.Sprintf("  %-14s  %-20s  %-20s  %s\n", "Metric", "Previous", "Current", "Change"))
	sb.WriteString("  " + strings.Repeat("-", 66) + "\n")
	sb.WriteString(fmt.Sprintf("  %-14s  %-20s  %-20s  %s\n", "Date",
		c.Previous.StartedAt.Format("2006-01-02 15:04"), c.Current.StartedAt.Format("2006-01-02 15:04"), "-"))
	sb.WriteString(fmt.Sprintf("  %-14s  %-20s  %-20s  %s\n", "Outcome", c.Previous.Outcome, c.Current.Outcome, "-"))
	writeCountRow(&sb, "Documents", c.Previous.Docs, c.Current.Docs)
	writeCountRow(&sb, "Broken links", c.Previous.BrokenLinks, c.Current.BrokenLinks)
	writeCountRow(&sb, "Failures", c.Previous.Failures, c.Current.Failures)
	sb.WriteString("\n")

	if len(c.NewBroken) > 0 {
		sb.WriteString(fmt.Sprintf("New broken links (%d):\n", len(c.NewBroken)))
		for _, l := range c.NewBroken {
			sb.WriteString(fmt.Sprintf("  + %s\n", l))
		}
		sb.WriteString("\n")
	}
	if len(c.Fixed) > 0 {
		sb.WriteString(fmt.Sprintf("Fixed links (%d):\n", len(c.Fixed)))
		for _, l := range c.Fixed {
			sb.WriteString(fmt.Sprintf("  - %s\n", l))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Unchanged broken links: %d\n", c.Unchanged))

	return w.output.Write([]byte(sb.String()))
}

func writeCountRow(sb *strings.Builder, label string, previous, current int) {
	sb.WriteString(fmt.Sprintf("  %-14s  %-20d  %-20d  %s\n", label, previous, current, formatDelta(current-previous)))
}

// formatDelta formats a count change with an explicit sign.
func formatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "0"
	}
}

// writeSection writes a section title between rules.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by docsite\n")
	sb.WriteString("https://github.com/nao1215/docsite\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
