package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, for pull request
// comments and CI job summaries. It uses github.com/nao1215/markdown for
// tables and GitHub alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the build report in Markdown format.
func (w *MarkdownWriter) Write(report *model.BuildReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeBrokenLinks(md, report)
	w.writeStylesheets(md, report)
	w.writeErrors(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with build information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.BuildReport) {
	md.H1("Docsite Build Report")
	md.PlainText("")

	rows := [][]string{
		{"Site", report.Site},
		{"URL", "`" + report.SiteURL + "`"},
	}
	if report.ConfigPath != "" {
		rows = append(rows, []string{"Config", "`" + report.ConfigPath + "`"})
	}
	rows = append(rows,
		[]string{"Started", report.StartedAt.Format(timeLayout)},
		[]string{"Duration", report.Duration().Round(time.Millisecond).String()},
		[]string{"Status", w.getStatusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.BuildReport) string {
	if report.Failed {
		return "❌ Failed"
	}
	if len(report.Warnings()) > 0 {
		return "⚠️ Passed with warnings"
	}
	return "✅ Passed"
}

// writeSummary writes the counters, a chart of the link results and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.BuildReport) {
	md.H2("Summary")
	md.PlainText("")

	failures := len(report.Failures())
	warnings := len(report.Warnings())
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(report.Docs)},
			{"Pages scanned", strconv.Itoa(report.PagesChecked)},
			{"Links checked", strconv.Itoa(report.LinksChecked)},
			{"🔴 Broken (fail)", strconv.Itoa(failures)},
			{"🟡 Broken (warn)", strconv.Itoa(warnings)},
			{"⚪ Ignored", strconv.Itoa(report.Ignored)},
			{"Broken hyperlinks", strconv.Itoa(report.CountBroken(config.LinkKindHyperlink))},
			{"Broken doc references", strconv.Itoa(report.CountBroken(config.LinkKindDocReference))},
		},
	})
	md.PlainText("")

	if failures+warnings+report.Ignored > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of the link check results.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.BuildReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Link Check Results"),
		piechart.WithShowData(true),
	)

	broken := len(report.BrokenLinks) + report.Ignored
	if ok := report.LinksChecked - broken; ok > 0 {
		chart.LabelAndIntValue("OK", uint64(ok))
	}
	if n := len(report.Failures()); n > 0 {
		chart.LabelAndIntValue("Fail", uint64(n))
	}
	if n := len(report.Warnings()); n > 0 {
		chart.LabelAndIntValue("Warn", uint64(n))
	}
	if report.Ignored > 0 {
		chart.LabelAndIntValue("Ignored", uint64(report.Ignored))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the build outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.BuildReport) {
	failures := len(report.Failures())
	switch {
	case failures > 0:
		md.Cautionf("%d broken link(s) fail the build.", failures)
	case report.Failed:
		md.Cautionf("The build failed. See the errors below.")
	case len(report.Warnings()) > 0:
		md.Warningf("%d broken link(s) reported as warnings.", len(report.Warnings()))
	default:
		md.Tip("No broken links found.")
	}
	md.PlainText("")
}

// writeBrokenLinks writes a table of broken links.
func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.BuildReport) {
	md.H2("Broken Links")
	md.PlainText("")

	if len(report.BrokenLinks) == 0 {
		md.PlainText("No broken links detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.BrokenLinks))
	for i, l := range report.BrokenLinks {
		rows[i] = []string{
			"`" + truncateString(l.Location(), 60) + "`",
			string(l.Kind),
			"`" + truncateString(l.Target, 60) + "`",
			l.Policy.String(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Location", "Kind", "Target", "Policy"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeStylesheets writes the integrity verification results.
func (w *MarkdownWriter) writeStylesheets(md *markdown.Markdown, report *model.BuildReport) {
	if len(report.Stylesheets) == 0 {
		return
	}

	md.H2("Stylesheet Integrity")
	md.PlainText("")

	rows := make([][]string, len(report.Stylesheets))
	for i, s := range report.Stylesheets {
		status := "✅ Verified"
		if !s.Verified {
			status = "❌ " + truncateString(s.Error, 60)
		}
		algorithm := s.Algorithm
		if algorithm == "" {
			algorithm = "-"
		}
		rows[i] = []string{"`" + s.Href + "`", algorithm, status}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stylesheet", "Algorithm", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeErrors writes the errors that failed the build.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, report *model.BuildReport) {
	if len(report.Errors) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")
	var items []string
	for _, e := range report.Errors {
		items = append(items, strings.Split(e, "\n")...)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// WriteComparison outputs a build comparison in Markdown format.
func (w *MarkdownWriter) WriteComparison(c *model.Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(fmt.Sprintf("Build Comparison: %s", c.Site))
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainTextf("**Trend:** %s", formatTrend(c.Trend))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Date", c.Previous.StartedAt.Format("2006-01-02 15:04"), c.Current.StartedAt.Format("2006-01-02 15:04"), "-"},
			{"Outcome", c.Previous.Outcome, c.Current.Outcome, "-"},
			{"Documents", strconv.Itoa(c.Previous.Docs), strconv.Itoa(c.Current.Docs), formatDelta(c.Current.Docs - c.Previous.Docs)},
			{"Broken links", strconv.Itoa(c.Previous.BrokenLinks), strconv.Itoa(c.Current.BrokenLinks), formatDelta(c.Current.BrokenLinks - c.Previous.BrokenLinks)},
			{"Failures", strconv.Itoa(c.Previous.Failures), strconv.Itoa(c.Current.Failures), formatDelta(c.Current.Failures - c.Previous.Failures)},
		},
	})
	md.PlainText("")

	if len(c.NewBroken) > 0 {
		md.H2(fmt.Sprintf("New Broken Links (%d)", len(c.NewBroken)))
		md.PlainText("")
		md.BulletList(linkItems(c.NewBroken)...)
		md.PlainText("")
	}
	if len(c.Fixed) > 0 {
		md.H2(fmt.Sprintf("Fixed Links (%d)", len(c.Fixed)))
		md.PlainText("")
		md.BulletList(linkItems(c.Fixed)...)
		md.PlainText("")
	}
	md.PlainTextf("Unchanged broken links: %d", c.Unchanged)

	return len(md.String()), md.Build()
}

func linkItems(links []model.BrokenLink) []string {
	items := make([]string, len(links))
	for i, l := range links {
		items[i] = fmt.Sprintf("`%s` %s `%s`", l.Location(), l.Kind, l.Target)
	}
	return items
}

// formatTrend decorates a trend for display.
func formatTrend(trend string) string {
	switch trend {
	case model.TrendImproved:
		return "✅ Improved"
	case model.TrendWorsened:
		return "❌ Worsened"
	default:
		return "➖ Unchanged"
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docsite](https://github.com/nao1215/docsite)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
