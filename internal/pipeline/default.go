package pipeline

import (
	"log/slog"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/crawler"
	"github.com/nao1215/docsite/internal/integrity"
)

// DefaultPipeline creates the standard build pipeline for opts:
// index, navbar, doc links, hyperlinks, stylesheets (only with
// VerifyIntegrity) and enforcement.
//
// The pipeline continues after a failed step so that one run reports every
// problem. Steps after a failed IndexDocsStep have no tree and do nothing.
func DefaultPipeline(opts *config.Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := New(WithLogger(logger), WithContinueOnError(true))

	p.AddSteps(
		NewIndexDocsStep(logger),
		NewNavbarStep(),
		NewDocLinkStep(),
		NewHyperlinkStep(
			WithHyperlinkLogger(logger),
			WithHyperlinkWalker(crawler.NewWalker(
				crawler.WithIgnorePatterns(opts.SkipPages),
				crawler.WithMaxPages(opts.MaxPages),
			)),
		),
	)
	if opts.VerifyIntegrity {
		fetcher := integrity.NewFetcher(
			integrity.WithTimeout(opts.FetchTimeout),
			integrity.WithMaxBodySize(opts.FetchMaxBytes),
		)
		p.AddStep(NewStylesheetStep(fetcher,
			WithStylesheetConcurrency(opts.FetchConcurrency),
			WithStylesheetLogger(logger),
		))
	}
	p.AddStep(NewEnforceStep(logger))
	return p
}
