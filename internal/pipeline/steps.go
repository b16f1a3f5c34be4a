package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/crawler"
	"github.com/nao1215/docsite/internal/docs"
)

// Step names, in the order DefaultPipeline runs them.
const (
	StepIndexDocs   = "index-docs"
	StepNavbar      = "navbar"
	StepDocLinks    = "doc-links"
	StepHyperlinks  = "hyperlinks"
	StepStylesheets = "stylesheets"
	StepEnforce     = "enforce"
)

// IndexDocsStep builds the document tree from the docs directory and adds
// the routes of standalone pages.
type IndexDocsStep struct {
	logger *slog.Logger
}

// NewIndexDocsStep creates the indexing step.
func NewIndexDocsStep(logger *slog.Logger) *IndexDocsStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexDocsStep{logger: logger}
}

// Name returns the step name.
func (s *IndexDocsStep) Name() string {
	return StepIndexDocs
}

// Do indexes the docs and pages directories.
func (s *IndexDocsStep) Do(_ context.Context, b *Build) error {
	tree, err := docs.Index(b.DocsDir, b.Config.DocsOptions().RouteBasePath, b.Config.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to index documents: %w", err)
	}
	pages, err := tree.AddPages(b.PagesDir(), b.Config.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to index pages: %w", err)
	}

	b.Tree = tree
	b.Report.Docs = tree.Len()
	s.logger.Debug("indexed documents",
		"dir", b.DocsDir,
		"docs", tree.Len(),
		"pages", pages,
	)
	return nil
}

// NavbarStep checks that every navbar doc reference names a document.
// An unresolved reference is a configuration error, not a broken link:
// no link policy applies to it.
type NavbarStep struct{}

// NewNavbarStep creates the navbar step.
func NewNavbarStep() *NavbarStep {
	return &NavbarStep{}
}

// Name returns the step name.
func (s *NavbarStep) Name() string {
	return StepNavbar
}

// Do validates the navbar doc references against the tree.
func (s *NavbarStep) Do(_ context.Context, b *Build) error {
	if b.Tree == nil {
		return nil
	}
	return errors.Join(b.Config.ValidateDocRefs(b.Tree)...)
}

// DocLinkStep finds markdown links to document files that are not in the
// tree. A link is resolved relative to the linking document first and
// relative to the docs root second.
type DocLinkStep struct{}

// NewDocLinkStep creates the doc reference step.
func NewDocLinkStep() *DocLinkStep {
	return &DocLinkStep{}
}

// Name returns the step name.
func (s *DocLinkStep) Name() string {
	return StepDocLinks
}

// Do checks the doc references of every document.
func (s *DocLinkStep) Do(_ context.Context, b *Build) error {
	if b.Tree == nil {
		return nil
	}
	for _, doc := range b.Tree.Docs() {
		for _, l := range doc.Links {
			if docs.Classify(l.Destination) != docs.ClassDocReference {
				continue
			}
			b.Report.LinksChecked++
			if s.resolves(b.Tree, doc.Source, l.Destination) {
				continue
			}
			b.Found(config.LinkKindDocReference, doc.Source, l.Line, l.Destination)
		}
	}
	return nil
}

func (s *DocLinkStep) resolves(tree *docs.Tree, source, dest string) bool {
	if rel, ok := docs.ResolveRelative(source, dest); ok {
		if _, found := tree.BySource(rel); found {
			return true
		}
	}
	// Docusaurus also tries the link against the content root. A link that
	// climbs out of the root names a file outside the docs and never resolves.
	rooted := path.Join(".", docs.StripFragment(dest))
	if rooted == ".." || strings.HasPrefix(rooted, "../") {
		return false
	}
	_, found := tree.BySource(rooted)
	return found
}

// HyperlinkStep finds links to routes and files the site does not serve.
//
// It checks site-absolute and relative links in markdown, and every internal
// reference of the built HTML pages when the output directory exists.
type HyperlinkStep struct {
	walker *crawler.Walker
	logger *slog.Logger
}

// HyperlinkStepOption configures a HyperlinkStep.
type HyperlinkStepOption func(*HyperlinkStep)

// WithHyperlinkWalker replaces the walker used for built pages.
func WithHyperlinkWalker(w *crawler.Walker) HyperlinkStepOption {
	return func(s *HyperlinkStep) {
		s.walker = w
	}
}

// WithHyperlinkLogger sets a custom logger for the hyperlink step.
func WithHyperlinkLogger(logger *slog.Logger) HyperlinkStepOption {
	return func(s *HyperlinkStep) {
		s.logger = logger
	}
}

// NewHyperlinkStep creates the hyperlink step.
func NewHyperlinkStep(opts ...HyperlinkStepOption) *HyperlinkStep {
	s := &HyperlinkStep{
		walker: crawler.NewWalker(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *HyperlinkStep) Name() string {
	return StepHyperlinks
}

// Do checks markdown hyperlinks, then the built pages.
func (s *HyperlinkStep) Do(ctx context.Context, b *Build) error {
	if b.Tree == nil {
		return nil
	}
	res := newSiteResolver(b.Tree, b.Config.BaseURL, b.StaticDir(), b.Options.OutDir)

	for _, doc := range b.Tree.Docs() {
		for _, l := range doc.Links {
			var target string
			switch docs.Classify(l.Destination) {
			case docs.ClassHyperlink:
				target = res.withBase(docs.StripFragment(l.Destination))
			case docs.ClassRelative:
				// Co-located assets are copied next to the page.
				if rel, ok := docs.ResolveRelative(doc.Source, l.Destination); ok &&
					isFile(filepath.Join(b.Tree.Root(), filepath.FromSlash(rel))) {
					b.Report.LinksChecked++
					continue
				}
				target = s.relativeTo(b, doc.Route, l.Destination)
			default:
				continue
			}
			b.Report.LinksChecked++
			if !res.exists(target) {
				b.Found(config.LinkKindHyperlink, doc.Source, l.Line, l.Destination)
			}
		}
	}

	return s.checkPages(ctx, b, res)
}

// relativeTo resolves dest the way a browser does on the page at route.
func (s *HyperlinkStep) relativeTo(b *Build, route, dest string) string {
	dir := route
	if b.Config.TrailingSlash == nil || !*b.Config.TrailingSlash {
		dir = path.Dir(route)
	}
	return path.Join(dir, docs.StripFragment(dest))
}

// checkPages scans the built HTML pages, if there are any.
func (s *HyperlinkStep) checkPages(ctx context.Context, b *Build, res *siteResolver) error {
	outDir := b.Options.OutDir
	if outDir == "" || !isDir(outDir) {
		s.logger.Debug("no built site, skipping page scan", "dir", outDir)
		return nil
	}

	n, err := s.walker.Walk(ctx, outDir, b.Report.SiteURL, func(p *crawler.Page) error {
		for _, l := range p.Result.InternalLinks() {
			u, err := url.Parse(l.Resolved)
			if err != nil {
				continue
			}
			b.Report.LinksChecked++
			if !res.exists(u.Path) {
				b.Found(config.LinkKindHyperlink, p.Path, 0, l.Raw)
			}
		}
		return nil
	})
	b.Report.PagesChecked = n
	if err != nil {
		return fmt.Errorf("failed to scan built pages in %s: %w", outDir, err)
	}
	s.logger.Debug("scanned built pages", "dir", outDir, "pages", n)
	return nil
}
