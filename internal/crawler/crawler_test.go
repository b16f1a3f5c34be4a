package crawler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const siteURL = "https://awslabs.github.io/ai-on-eks/"

// TestParser tests HTML parsing functionality.
func TestParser(t *testing.T) {
	t.Parallel()

	t.Run("extracts references and classifies them", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<link rel="stylesheet" href="/ai-on-eks/assets/css/styles.css">
			<link rel="preconnect" href="https://fonts.gstatic.com">
			<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/katex@0.13.24/dist/katex.min.css">
			<script src="/ai-on-eks/assets/js/main.js"></script>
		</head><body>
			<a href="/ai-on-eks/docs/blueprints">Blueprints</a>
			<a href="setup">Relative</a>
			<a href="https://awslabs.github.io/other-project/">Same host, other base</a>
			<a href="https://github.com/awslabs/ai-on-eks">GitHub</a>
			<a href="#section" id="top">Anchor</a>
			<a href="mailto:team@example.com">Mail</a>
			<img src="../img/logo.svg">
		</body></html>`

		parser, err := NewParser(siteURL+"docs/guides/", siteURL)
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}
		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 8 {
			t.Fatalf("expected 8 links, got %d: %+v", len(result.Links), result.Links)
		}

		var internal []string
		for _, l := range result.InternalLinks() {
			internal = append(internal, l.Resolved)
		}
		want := []string{
			siteURL + "assets/css/styles.css",
			siteURL + "assets/js/main.js",
			siteURL + "docs/blueprints",
			siteURL + "docs/guides/setup",
			siteURL + "docs/img/logo.svg",
		}
		if strings.Join(internal, " ") != strings.Join(want, " ") {
			t.Errorf("expected internal links %v, got %v", want, internal)
		}
		if got := len(result.Links) - len(result.InternalLinks()); got != 3 {
			t.Errorf("expected 3 external links, got %d", got)
		}
	})

	t.Run("invalid page URL", func(t *testing.T) {
		t.Parallel()
		if _, err := NewParser("://bad", siteURL); err == nil {
			t.Error("expected an error for an invalid page URL")
		}
	})
}

func TestPageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  string
		want string
	}{
		{rel: "index.html", want: siteURL},
		{rel: "docs/intro/index.html", want: siteURL + "docs/intro/"},
		{rel: "docs/intro.html", want: siteURL + "docs/intro"},
		{rel: "404.html", want: siteURL + "404"},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			t.Parallel()
			if got := PageURL(strings.TrimSuffix(siteURL, "/"), tt.rel); got != tt.want {
				t.Errorf("PageURL(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestWalker(t *testing.T) {
	t.Parallel()

	out := t.TempDir()
	pages := map[string]string{
		"index.html":             `<a href="/ai-on-eks/docs/intro">Intro</a>`,
		"docs/intro.html":        `<a href="/ai-on-eks/docs/missing">Missing</a>`,
		"search/index.html":      `<a href="/ai-on-eks/nowhere">Search</a>`,
		"assets/css/styles.css":  `body{}`,
		"docs/blueprints/a.HTML": `<title>A</title>`,
	}
	for name, content := range pages {
		p := filepath.Join(out, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("visits html pages in order", func(t *testing.T) {
		t.Parallel()

		var visited []string
		n, err := NewWalker().Walk(context.Background(), out, siteURL, func(p *Page) error {
			visited = append(visited, p.Path)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "docs/blueprints/a.HTML docs/intro.html index.html search/index.html"
		if n != 4 || strings.Join(visited, " ") != want {
			t.Errorf("expected %q, got %d pages %v", want, n, visited)
		}
	})

	t.Run("ignore patterns skip pages", func(t *testing.T) {
		t.Parallel()

		w := NewWalker(WithIgnorePatterns([]string{"/ai-on-eks/search/*"}))
		var visited []string
		_, err := w.Walk(context.Background(), out, siteURL, func(p *Page) error {
			visited = append(visited, p.URL)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, u := range visited {
			if strings.Contains(u, "/search") {
				t.Errorf("expected search page to be skipped, visited %v", visited)
			}
		}
	})

	t.Run("max pages stops early", func(t *testing.T) {
		t.Parallel()

		n, err := NewWalker(WithMaxPages(2)).Walk(context.Background(), out, siteURL, func(*Page) error { return nil })
		if err != nil || n != 2 {
			t.Errorf("expected 2 pages and no error, got %d, %v", n, err)
		}
	})

	t.Run("callback error stops the walk", func(t *testing.T) {
		t.Parallel()

		stop := errors.New("stop")
		_, err := NewWalker().Walk(context.Background(), out, siteURL, func(*Page) error { return stop })
		if !errors.Is(err, stop) {
			t.Errorf("expected callback error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewWalker().Walk(ctx, out, siteURL, func(*Page) error { return nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{pattern: "/docs/*", path: "/docs", want: true},
		{pattern: "/docs/*", path: "/docs/a/b", want: true},
		{pattern: "/docs/*", path: "/documents", want: false},
		{pattern: "*.pdf", path: "/files/guide.pdf", want: true},
		{pattern: "/api/v?", path: "/api/v1", want: true},
		{pattern: "search*", path: "/ai-on-eks/search", want: true},
		{pattern: "/blog", path: "/blog/post", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			t.Parallel()
			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}
