package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/docs"
)

const minimalConfig = `title: AI on EKS
tagline: Tested patterns for AI workloads
url: https://awslabs.github.io
baseUrl: /ai-on-eks/
i18n:
  defaultLocale: en
  locales: [en]
`

// newSite writes files into a temporary site directory and returns a build
// of it. extra is appended to the minimal configuration.
func newSite(t *testing.T, extra string, files map[string]string) *Build {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	cfg, err := config.Parse([]byte(minimalConfig+extra), config.FormatYAML)
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	opts := config.NewOptions()
	opts.SiteDir = dir
	opts.OutDir = filepath.Join(dir, "build")
	return NewBuild(cfg, opts, filepath.Join(dir, "docs"))
}

// runBuild runs the default pipeline and returns its error and everything
// logged at warning level and above.
func runBuild(t *testing.T, b *Build) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	err := DefaultPipeline(b.Options, logger).Execute(context.Background(), b)
	return buf.String(), err
}

const introDoc = `# Intro

See [setup](guides/setup.md) and [the guide](/docs/guides/setup).

![logo](/img/logo.png)
![diagram](./diagram.png)

[blueprints](blueprints) [home](/) [source](https://github.com/awslabs/ai-on-eks)
`

func TestBuild_ValidLinks(t *testing.T) {
	t.Parallel()

	b := newSite(t, "", map[string]string{
		"docs/intro.md":            introDoc,
		"docs/diagram.png":         "png",
		"docs/guides/setup.md":     "[back](intro.md)\n",
		"docs/blueprints/index.md": "# Blueprints\n",
		"static/img/logo.png":      "png",
		"src/pages/index.js":       "export default function Home() {}",
	})

	logged, err := runBuild(t, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logged != "" {
		t.Errorf("expected no warnings, got %q", logged)
	}
	if b.Report.Docs != 3 {
		t.Errorf("expected 3 documents, got %d", b.Report.Docs)
	}
	if b.Report.LinksChecked != 7 {
		t.Errorf("expected 7 links checked, got %d", b.Report.LinksChecked)
	}
	if len(b.Report.BrokenLinks) != 0 {
		t.Errorf("expected no broken links, got %v", b.Report.BrokenLinks)
	}
	if b.Report.Outcome() != "passed" {
		t.Errorf("expected a passed build, got %s", b.Report.Outcome())
	}
}

func TestBuild_FailOnBrokenDocReference(t *testing.T) {
	t.Parallel()

	b := newSite(t, "onBrokenMarkdownLinks: fail\n", map[string]string{
		"docs/intro.md": "[gone](./missing.md)\n",
	})

	_, err := runBuild(t, b)

	var linkErr *LinkIntegrityError
	if !errors.As(err, &linkErr) {
		t.Fatalf("expected LinkIntegrityError, got %v", err)
	}
	if len(linkErr.Links) != 1 {
		t.Fatalf("expected 1 broken link, got %v", linkErr.Links)
	}
	got := linkErr.Links[0]
	if got.Kind != config.LinkKindDocReference || got.Source != "intro.md" || got.Line != 1 || got.Target != "./missing.md" {
		t.Errorf("unexpected broken link: %+v", got)
	}
	if !b.Report.Failed || b.Report.Outcome() != "failed" {
		t.Error("expected the build to fail")
	}
}

func TestBuild_FailOnDocReferenceOutsideRoot(t *testing.T) {
	t.Parallel()

	b := newSite(t, "onBrokenMarkdownLinks: fail\n", map[string]string{
		"docs/intro.md":        "[up](../guides/setup.md)\n\n[in](guides/setup.md)\n",
		"docs/guides/setup.md": "# Setup\n",
	})

	_, err := runBuild(t, b)

	var linkErr *LinkIntegrityError
	if !errors.As(err, &linkErr) {
		t.Fatalf("expected LinkIntegrityError, got %v", err)
	}
	if len(linkErr.Links) != 1 {
		t.Fatalf("expected 1 broken link, got %v", linkErr.Links)
	}
	if got := linkErr.Links[0]; got.Target != "../guides/setup.md" || got.Line != 1 {
		t.Errorf("unexpected broken link: %+v", got)
	}
}

func TestBuild_WarnOnBrokenHyperlink(t *testing.T) {
	t.Parallel()

	b := newSite(t, "onBrokenLinks: warn\n", map[string]string{
		"docs/intro.md": "# Intro\n\n[gone](/docs/missing)\n",
	})

	logged, err := runBuild(t, b)
	if err != nil {
		t.Fatalf("expected warn policy not to fail the build, got %v", err)
	}
	if n := strings.Count(logged, "level=WARN"); n != 1 {
		t.Errorf("expected exactly one warning, got %d: %q", n, logged)
	}
	if !strings.Contains(logged, "/docs/missing") || !strings.Contains(logged, "intro.md:3") {
		t.Errorf("expected the warning to name the link and its location, got %q", logged)
	}
	if len(b.Report.BrokenLinks) != 1 || b.Report.BrokenLinks[0].Policy != config.PolicyWarn {
		t.Errorf("expected one reported warning, got %v", b.Report.BrokenLinks)
	}
	if b.Report.Failed {
		t.Error("warnings must not fail the build")
	}
}

func TestBuild_IgnorePolicy(t *testing.T) {
	t.Parallel()

	b := newSite(t, "onBrokenLinks: ignore\nonBrokenMarkdownLinks: ignore\n", map[string]string{
		"docs/intro.md": "[a](/docs/missing) and [b](missing.md)\n",
	})

	logged, err := runBuild(t, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logged != "" {
		t.Errorf("expected no log output, got %q", logged)
	}
	if len(b.Report.BrokenLinks) != 0 {
		t.Errorf("expected no report entries, got %v", b.Report.BrokenLinks)
	}
	if b.Report.Ignored != 2 {
		t.Errorf("expected 2 ignored links, got %d", b.Report.Ignored)
	}
}

func TestBuild_DefaultPolicies(t *testing.T) {
	t.Parallel()

	// Hyperlinks fail and doc references warn when nothing is configured.
	b := newSite(t, "", map[string]string{
		"docs/intro.md": "[a](/docs/missing)\n\n[b](missing.md)\n",
	})

	logged, err := runBuild(t, b)

	var linkErr *LinkIntegrityError
	if !errors.As(err, &linkErr) || len(linkErr.Links) != 1 || linkErr.Links[0].Kind != config.LinkKindHyperlink {
		t.Fatalf("expected one failing hyperlink, got %v", err)
	}
	if strings.Count(logged, "level=WARN") != 1 {
		t.Errorf("expected one warning for the doc reference, got %q", logged)
	}
	if b.Report.CountBroken(config.LinkKindDocReference) != 1 {
		t.Errorf("expected the doc reference in the report, got %v", b.Report.BrokenLinks)
	}
}

func TestBuild_NavbarDocRefs(t *testing.T) {
	t.Parallel()

	navbar := `themeConfig:
  navbar:
    items:
      - type: doc
        docId: intro
        label: Docs
      - type: doc
        docId: resources/intro
        label: Resources
`
	b := newSite(t, navbar, map[string]string{
		"docs/intro.md": "# Intro\n",
	})

	_, err := runBuild(t, b)

	var vErr *config.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "themeConfig.navbar.items[1].docId" {
		t.Errorf("expected the second item to be named, got %q", vErr.Field)
	}
	if len(b.Report.PerformedSteps) != 5 {
		t.Errorf("expected the remaining steps to run, got %v", b.Report.PerformedSteps)
	}
}

const builtIndex = `<html><head>
<link rel="stylesheet" href="/ai-on-eks/assets/css/styles.css">
</head><body>
<a href="/ai-on-eks/docs/intro">Intro</a>
<a href="/ai-on-eks/docs/missing">Missing</a>
<a href="https://github.com/awslabs/ai-on-eks">GitHub</a>
</body></html>`

func TestBuild_BuiltPages(t *testing.T) {
	t.Parallel()

	b := newSite(t, "onBrokenLinks: warn\n", map[string]string{
		"docs/intro.md":               "# Intro\n",
		"build/index.html":            builtIndex,
		"build/assets/css/styles.css": "body{}",
	})

	logged, err := runBuild(t, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Report.PagesChecked != 1 {
		t.Errorf("expected 1 page, got %d", b.Report.PagesChecked)
	}
	if len(b.Report.BrokenLinks) != 1 {
		t.Fatalf("expected 1 broken link, got %v", b.Report.BrokenLinks)
	}
	got := b.Report.BrokenLinks[0]
	if got.Source != "index.html" || got.Target != "/ai-on-eks/docs/missing" {
		t.Errorf("unexpected broken link: %+v", got)
	}
	if strings.Count(logged, "level=WARN") != 1 {
		t.Errorf("expected one warning, got %q", logged)
	}
}

func TestBuild_BuiltPageSelection(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"docs/intro.md":               "# Intro\n",
		"build/index.html":            builtIndex,
		"build/search/index.html":     builtIndex,
		"build/assets/css/styles.css": "body{}",
	}

	t.Run("skip patterns", func(t *testing.T) {
		t.Parallel()

		b := newSite(t, "onBrokenLinks: warn\n", files)
		b.Options.SkipPages = []string{"/ai-on-eks/search/*"}
		if _, err := runBuild(t, b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Report.PagesChecked != 1 {
			t.Errorf("expected 1 page, got %d", b.Report.PagesChecked)
		}
		if len(b.Report.BrokenLinks) != 1 || b.Report.BrokenLinks[0].Source != "index.html" {
			t.Errorf("unexpected broken links: %v", b.Report.BrokenLinks)
		}
	})

	t.Run("page limit", func(t *testing.T) {
		t.Parallel()

		b := newSite(t, "onBrokenLinks: warn\n", files)
		b.Options.MaxPages = 1
		if _, err := runBuild(t, b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Report.PagesChecked != 1 {
			t.Errorf("expected 1 page, got %d", b.Report.PagesChecked)
		}
	})

	t.Run("all pages", func(t *testing.T) {
		t.Parallel()

		b := newSite(t, "onBrokenLinks: warn\n", files)
		if _, err := runBuild(t, b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Report.PagesChecked != 2 {
			t.Errorf("expected 2 pages, got %d", b.Report.PagesChecked)
		}
	})
}

func TestBuild_MissingDocsDir(t *testing.T) {
	t.Parallel()

	b := newSite(t, "", map[string]string{"README.md": "no docs here"})

	_, err := runBuild(t, b)
	if !errors.Is(err, docs.ErrDocsDirNotFound) {
		t.Fatalf("expected ErrDocsDirNotFound, got %v", err)
	}
	if b.Tree != nil {
		t.Error("expected no tree")
	}
	if len(b.Report.PerformedSteps) != 5 {
		t.Errorf("expected later steps to run as no-ops, got %v", b.Report.PerformedSteps)
	}
}

func TestBuild_Found(t *testing.T) {
	t.Parallel()

	b := emptyBuild(t)
	b.Found(config.LinkKindHyperlink, "intro.md", 3, "/docs/missing")
	b.Found(config.LinkKindHyperlink, "intro.md", 3, "/docs/missing")
	b.Found(config.LinkKindHyperlink, "intro.md", 9, "/docs/missing")

	pending := b.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected duplicates on one line to collapse, got %v", pending)
	}
	if pending[0].Policy != config.PolicyFail {
		t.Errorf("expected the default hyperlink policy, got %v", pending[0].Policy)
	}
}

func TestLinkIntegrityError(t *testing.T) {
	t.Parallel()

	b := emptyBuild(t)
	b.Found(config.LinkKindHyperlink, "a.md", 1, "/x")
	b.Found(config.LinkKindHyperlink, "b.md", 2, "/y")

	single := &LinkIntegrityError{Links: b.Pending()[:1]}
	if single.Error() != `a.md:1: broken hyperlink "/x"` {
		t.Errorf("unexpected message: %q", single.Error())
	}
	multi := &LinkIntegrityError{Links: b.Pending()}
	if !strings.HasPrefix(multi.Error(), "2 broken links found") {
		t.Errorf("unexpected message: %q", multi.Error())
	}
}

func TestSiteResolver(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"docs/intro.md", "static/img/logo.png", "build/search/index.html", "build/404.html"} {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	tree, err := docs.Index(filepath.Join(root, "docs"), "docs", "/ai-on-eks/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := newSiteResolver(tree, "/ai-on-eks/", filepath.Join(root, "static"), filepath.Join(root, "build"))

	tests := []struct {
		path string
		want bool
	}{
		{path: "/ai-on-eks/docs/intro", want: true},
		{path: "/ai-on-eks/docs/intro/#section", want: true},
		{path: "/ai-on-eks/img/logo.png", want: true},
		{path: "/ai-on-eks/search", want: true},
		{path: "/ai-on-eks/search/", want: true},
		{path: "/ai-on-eks/404", want: true},
		{path: "/img/logo.png", want: false},
		{path: "/ai-on-eks/docs/missing", want: false},
		{path: "/ai-on-eks/img", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := res.exists(tt.path); got != tt.want {
				t.Errorf("exists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	t.Run("withBase", func(t *testing.T) {
		t.Parallel()
		for in, want := range map[string]string{
			"/docs/intro":           "/ai-on-eks/docs/intro",
			"/ai-on-eks/docs/intro": "/ai-on-eks/docs/intro",
			"/ai-on-eks":            "/ai-on-eks",
			"/":                     "/ai-on-eks/",
		} {
			if got := res.withBase(in); got != want {
				t.Errorf("withBase(%q) = %q, want %q", in, got, want)
			}
		}
	})
}
