// Package metrics exports build results as Prometheus metrics.
//
// A build is a short-lived process, so metrics are not served over HTTP.
// They are written once to a file in the text exposition format, for the
// node_exporter textfile collector or for CI to archive.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/model"
)

// Metrics holds the docsite build metrics on an isolated registry.
type Metrics struct {
	Registry *prometheus.Registry

	Documents     prometheus.Gauge
	PagesChecked  prometheus.Gauge
	LinksChecked  prometheus.Gauge
	BrokenLinks   *prometheus.GaugeVec
	IgnoredLinks  prometheus.Gauge
	Stylesheets   *prometheus.GaugeVec
	Duration      prometheus.Gauge
	LastBuildTime prometheus.Gauge
	Success       prometheus.Gauge

	BuildInfo *prometheus.GaugeVec

	version string
}

// New creates a Metrics instance with all collectors registered. The
// version is recorded as a label on the docsite_info gauge.
func New(version string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		version:  version,

		Documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsite_documents",
			Help: "Number of documents in the document tree.",
		}),
		PagesChecked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsite_pages_checked",
			Help: "Number of built HTML pages scanned for links.",
		}),
		LinksChecked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsite_links_checked",
			Help: "Number of internal links checked.",
		}),
		BrokenLinks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "docsite_broken_links",
				Help: "Number of broken links by kind and policy.",
			},
			[]string{"kind", "policy"},
		),
		IgnoredLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsite_ignored_links",
			Help: "Number of broken links dropped by the ignore policy.",
		}),
		Stylesheets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "docsite_stylesheets_verified",
				Help: "Number of stylesheets checked for integrity by result.",
			},
			[]string{"result"},
		),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsite_build_duration_seconds",
			Help: "Duration of the last build in seconds.",
		}),
		LastBuildTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsite_last_build_timestamp_seconds",
			Help: "Unix time the last build started.",
		}),
		Success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docsite_build_success",
			Help: "1 if the last build passed, 0 otherwise.",
		}),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "docsite_info",
				Help: "Build information of the docsite binary.",
			},
			[]string{"version", "go_version", "site"},
		),
	}

	reg.MustRegister(
		m.Documents,
		m.PagesChecked,
		m.LinksChecked,
		m.BrokenLinks,
		m.IgnoredLinks,
		m.Stylesheets,
		m.Duration,
		m.LastBuildTime,
		m.Success,
		m.BuildInfo,
	)

	// Every series exists even when zero so that alerts see a value.
	m.resetBrokenLinks()
	m.Stylesheets.WithLabelValues("verified")
	m.Stylesheets.WithLabelValues("failed")

	m.BuildInfo.WithLabelValues(version, runtime.Version(), "").Set(1)

	return m
}

// resetBrokenLinks sets every kind and policy series to zero.
func (m *Metrics) resetBrokenLinks() {
	m.BrokenLinks.Reset()
	for _, kind := range []config.LinkKind{config.LinkKindHyperlink, config.LinkKindDocReference} {
		for _, policy := range []config.LinkPolicy{config.PolicyWarn, config.PolicyFail} {
			m.BrokenLinks.WithLabelValues(string(kind), policy.String())
		}
	}
}

// Observe records a finished build report. Observing another report
// replaces the values of the previous one.
func (m *Metrics) Observe(report *model.BuildReport) {
	m.BuildInfo.Reset()
	m.BuildInfo.WithLabelValues(m.version, runtime.Version(), report.Site).Set(1)

	m.Documents.Set(float64(report.Docs))
	m.PagesChecked.Set(float64(report.PagesChecked))
	m.LinksChecked.Set(float64(report.LinksChecked))
	m.IgnoredLinks.Set(float64(report.Ignored))

	m.resetBrokenLinks()
	for _, l := range report.BrokenLinks {
		m.BrokenLinks.WithLabelValues(string(l.Kind), l.Policy.String()).Inc()
	}

	failed := len(report.IntegrityFailures())
	m.Stylesheets.WithLabelValues("verified").Set(float64(len(report.Stylesheets) - failed))
	m.Stylesheets.WithLabelValues("failed").Set(float64(failed))

	m.Duration.Set(report.Duration().Seconds())
	m.LastBuildTime.Set(float64(report.StartedAt.Unix()))
	if report.Failed {
		m.Success.Set(0)
	} else {
		m.Success.Set(1)
	}
}

// WriteFile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
