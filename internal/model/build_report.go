package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/docsite/internal/config"
)

// Build outcomes recorded in reports and history.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

// BrokenLink is a reference that resolves to no document, route or file.
type BrokenLink struct {
	// Kind says which policy governs the link.
	Kind config.LinkKind `json:"kind"`

	// Source is the file the link was found in, relative to the docs
	// directory for markdown and to the output directory for built pages.
	Source string `json:"source"`

	// Line is the 1-based line of the link in Source, or 0 if unknown.
	Line int `json:"line,omitempty"`

	// Target is the link destination as written.
	Target string `json:"target"`

	// Policy is the enforcement level that was applied.
	Policy config.LinkPolicy `json:"policy"`
}

// Location returns "source:line", or just the source when the line is unknown.
func (l BrokenLink) Location() string {
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.Source, l.Line)
	}
	return l.Source
}

// String implements fmt.Stringer.
func (l BrokenLink) String() string {
	return fmt.Sprintf("%s: broken %s %q", l.Location(), l.Kind, l.Target)
}

// Key identifies the link across builds. Line numbers are left out so that
// edits above a link do not make it look new.
func (l BrokenLink) Key() string {
	return string(l.Kind) + "|" + l.Source + "|" + l.Target
}

// StylesheetCheck is the integrity verification result of one stylesheet.
type StylesheetCheck struct {
	Href      string `json:"href"`
	Algorithm string `json:"algorithm,omitempty"`
	Verified  bool   `json:"verified"`
	Error     string `json:"error,omitempty"`
}

// BuildReport is the result of one build run.
//
// Steps fill it in place while the pipeline runs; it is read-only once the
// pipeline returns.
type BuildReport struct {
	// Site is the configured site title.
	Site string `json:"site"`

	// SiteURL is the canonical URL joined with the base path.
	SiteURL string `json:"site_url"`

	// BaseURL is the configured base path.
	BaseURL string `json:"base_url"`

	// ConfigPath is the configuration file the build used.
	ConfigPath string `json:"config_path,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Docs is the number of documents in the document tree.
	Docs int `json:"docs"`

	// LinksChecked counts internal references examined, of both kinds.
	LinksChecked int `json:"links_checked"`

	// PagesChecked counts built HTML pages scanned for hyperlinks.
	PagesChecked int `json:"pages_checked"`

	// BrokenLinks lists broken references that were not ignored.
	BrokenLinks []BrokenLink `json:"broken_links,omitempty"`

	// Ignored counts broken references dropped under the ignore policy.
	Ignored int `json:"ignored"`

	Stylesheets []StylesheetCheck `json:"stylesheets,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Errors lists the errors that stopped the build.
	Errors []string `json:"errors,omitempty"`

	// Failed is true if the build must exit non-zero.
	Failed bool `json:"failed"`
}

// NewBuildReport creates an empty report for cfg.
func NewBuildReport(cfg *config.SiteConfig, configPath string) *BuildReport {
	return &BuildReport{
		Site:           cfg.Title,
		SiteURL:        strings.TrimSuffix(cfg.URL, "/") + cfg.BaseURL,
		BaseURL:        cfg.BaseURL,
		ConfigPath:     configPath,
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// AddBrokenLink records a broken reference.
func (r *BuildReport) AddBrokenLink(l BrokenLink) {
	r.BrokenLinks = append(r.BrokenLinks, l)
}

// AddError records an error and marks the build failed.
func (r *BuildReport) AddError(err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, err.Error())
	r.Failed = true
}

// MarkStep records that a pipeline step ran.
func (r *BuildReport) MarkStep(name string) {
	r.PerformedSteps = append(r.PerformedSteps, name)
}

// Finish stamps the finish time.
func (r *BuildReport) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns how long the build took, or 0 if it has not finished.
func (r *BuildReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome returns OutcomePassed or OutcomeFailed.
func (r *BuildReport) Outcome() string {
	if r.Failed {
		return OutcomeFailed
	}
	return OutcomePassed
}

// CountBroken returns the number of recorded broken links of kind.
func (r *BuildReport) CountBroken(kind config.LinkKind) int {
	n := 0
	for _, l := range r.BrokenLinks {
		if l.Kind == kind {
			n++
		}
	}
	return n
}

// Warnings returns the broken links that were recorded under the warn policy.
func (r *BuildReport) Warnings() []BrokenLink {
	return r.withPolicy(config.PolicyWarn)
}

// Failures returns the broken links that were recorded under the fail policy.
func (r *BuildReport) Failures() []BrokenLink {
	return r.withPolicy(config.PolicyFail)
}

func (r *BuildReport) withPolicy(p config.LinkPolicy) []BrokenLink {
	var out []BrokenLink
	for _, l := range r.BrokenLinks {
		if l.Policy == p {
			out = append(out, l)
		}
	}
	return out
}

// SortBrokenLinks orders broken links by source, line and target so that
// reports are stable across runs.
func (r *BuildReport) SortBrokenLinks() {
	slices.SortStableFunc(r.BrokenLinks, func(a, b BrokenLink) int {
		if c := strings.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		return strings.Compare(a.Target, b.Target)
	})
}

// IntegrityFailures returns the stylesheets that failed verification.
func (r *BuildReport) IntegrityFailures() []StylesheetCheck {
	var out []StylesheetCheck
	for _, s := range r.Stylesheets {
		if !s.Verified {
			out = append(out, s)
		}
	}
	return out
}
