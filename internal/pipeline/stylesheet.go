package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/integrity"
	"github.com/nao1215/docsite/internal/model"
)

// StylesheetStep verifies the integrity metadata of the configured
// stylesheets. Stylesheets are checked concurrently with a bounded number of
// downloads in flight; stylesheets without integrity metadata are skipped.
//
// Site-relative hrefs are read from the static and output directories
// instead of being downloaded.
type StylesheetStep struct {
	fetcher *integrity.Fetcher

	// concurrency is the maximum number of concurrent checks.
	concurrency int

	logger *slog.Logger
}

// StylesheetStepOption configures a StylesheetStep.
type StylesheetStepOption func(*StylesheetStep)

// WithStylesheetConcurrency sets the maximum number of concurrent checks.
func WithStylesheetConcurrency(n int) StylesheetStepOption {
	return func(s *StylesheetStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithStylesheetLogger sets a custom logger for the stylesheet step.
func WithStylesheetLogger(logger *slog.Logger) StylesheetStepOption {
	return func(s *StylesheetStep) {
		s.logger = logger
	}
}

// NewStylesheetStep creates the stylesheet step.
func NewStylesheetStep(fetcher *integrity.Fetcher, opts ...StylesheetStepOption) *StylesheetStep {
	s := &StylesheetStep{
		fetcher:     fetcher,
		concurrency: config.DefaultFetchConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *StylesheetStep) Name() string {
	return StepStylesheets
}

// Do verifies every stylesheet that declares integrity metadata. Results
// keep the configuration order. A mismatch or a failed download of any
// stylesheet fails the step; only cancellation stops the others early.
func (s *StylesheetStep) Do(ctx context.Context, b *Build) error {
	var targets []config.Stylesheet
	for _, sheet := range b.Config.Stylesheets {
		if sheet.Integrity != "" {
			targets = append(targets, sheet)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	s.logger.Debug("verifying stylesheets",
		"total", len(targets),
		"concurrency", s.concurrency,
	)

	// Each goroutine writes only its own index.
	checks := make([]model.StylesheetCheck, len(targets))
	errs := make([]error, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, sheet := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			checks[i], errs[i] = s.verify(gctx, b, sheet)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.Report.Stylesheets = checks
	return errors.Join(errs...)
}

// verify checks one stylesheet.
func (s *StylesheetStep) verify(ctx context.Context, b *Build, sheet config.Stylesheet) (model.StylesheetCheck, error) {
	check := model.StylesheetCheck{Href: sheet.Href}
	if hashes, err := integrity.Parse(sheet.Integrity); err == nil {
		check.Algorithm = string(integrity.StrongestAlgorithm(hashes))
	}

	err := s.fetchAndVerify(ctx, b, sheet)
	if err != nil {
		check.Error = err.Error()
		s.logger.Debug("stylesheet verification failed", "href", sheet.Href, "error", err)
		return check, fmt.Errorf("stylesheet %s: %w", sheet.Href, err)
	}
	check.Verified = true
	s.logger.Debug("stylesheet verified", "href", sheet.Href)
	return check, nil
}

func (s *StylesheetStep) fetchAndVerify(ctx context.Context, b *Build, sheet config.Stylesheet) error {
	href := sheet.Href
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return err
	}
	if u.Scheme != "" {
		return s.fetcher.FetchAndVerify(ctx, href, sheet.Integrity)
	}
	content, err := readLocal(b, u.Path)
	if err != nil {
		return err
	}
	return integrity.Verify(content, sheet.Integrity)
}

// readLocal reads a site-relative file from the static directory or, failing
// that, from the output directory.
func readLocal(b *Build, p string) ([]byte, error) {
	res := newSiteResolver(nil, b.Config.BaseURL)
	rel := strings.TrimPrefix(res.withBase(path.Clean("/"+p)), res.base)
	for _, dir := range []string{b.StaticDir(), b.Options.OutDir} {
		if dir == "" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel))) //nolint:gosec // site directories
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", p, os.ErrNotExist)
}
