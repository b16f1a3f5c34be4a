package pipeline

import (
	"path/filepath"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/docs"
	"github.com/nao1215/docsite/internal/model"
)

// Build is the state one pipeline run works on.
//
// Config and Options are read-only inputs. Steps fill Tree and Report, and
// record broken references with Found; EnforceStep applies the link
// policies to them.
type Build struct {
	Config  *config.SiteConfig
	Options *config.Options

	// DocsDir is the resolved docs directory.
	DocsDir string

	// Tree is set by IndexDocsStep. Steps that need it do nothing while it is nil.
	Tree *docs.Tree

	Report *model.BuildReport

	// found holds broken references awaiting enforcement, in discovery order.
	found []model.BrokenLink
	seen  map[string]bool
}

// NewBuild creates the state of a build of cfg. docsDir is the resolved
// docs directory, see config.Options.ResolveDocsDir.
func NewBuild(cfg *config.SiteConfig, opts *config.Options, docsDir string) *Build {
	if opts == nil {
		opts = config.NewOptions()
	}
	return &Build{
		Config:  cfg,
		Options: opts,
		DocsDir: docsDir,
		Report:  model.NewBuildReport(cfg, opts.ConfigFilePath),
		seen:    make(map[string]bool),
	}
}

// Found records a broken reference of kind. The policy configured for kind
// is attached; it is applied later by EnforceStep. The same target reported
// twice from the same source line is recorded once.
func (b *Build) Found(kind config.LinkKind, source string, line int, target string) {
	l := model.BrokenLink{
		Kind:   kind,
		Source: source,
		Line:   line,
		Target: target,
		Policy: b.Config.ResolveLinkPolicy(kind),
	}
	key := l.Location() + "|" + l.Key()
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.found = append(b.found, l)
}

// Pending returns the broken references recorded so far.
func (b *Build) Pending() []model.BrokenLink {
	return b.found
}

// StaticDir is the directory of files copied verbatim to the site root.
func (b *Build) StaticDir() string {
	return filepath.Join(b.Options.SiteDir, "static")
}

// PagesDir is the directory of standalone pages.
func (b *Build) PagesDir() string {
	return filepath.Join(b.Options.SiteDir, "src", "pages")
}
