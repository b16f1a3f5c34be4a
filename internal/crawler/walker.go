package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Page is a built HTML page and the references it contains.
type Page struct {
	// Path is the file path relative to the output directory, slash-separated.
	Path string

	// URL is the absolute URL the page is served at.
	URL string

	Result *ParseResult
}

// Walker visits the HTML pages of a built site on disk.
//
// It is the offline counterpart of a crawler: instead of following links
// over HTTP it reads every page the generator wrote, so unlinked pages are
// checked too.
type Walker struct {
	// ignorePatterns are URL path globs of pages to skip.
	ignorePatterns []string

	// maxPages limits how many pages are parsed. 0 means no limit.
	maxPages int
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithIgnorePatterns sets URL path patterns of pages to skip.
// Patterns use glob syntax (e.g., "/ai-on-eks/search*", "/*/blog/*").
func WithIgnorePatterns(patterns []string) WalkerOption {
	return func(w *Walker) {
		w.ignorePatterns = patterns
	}
}

// WithMaxPages sets the maximum number of pages to parse.
func WithMaxPages(n int) WalkerOption {
	return func(w *Walker) {
		w.maxPages = n
	}
}

// NewWalker creates a Walker.
func NewWalker(opts ...WalkerOption) *Walker {
	w := &Walker{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk parses every .html file under outDir in lexical order and calls fn
// for each. siteURL is the canonical URL including the base path. It returns
// the number of pages visited. Walking stops at the first error from fn or
// when ctx is done.
func (w *Walker) Walk(ctx context.Context, outDir, siteURL string, fn func(*Page) error) (int, error) {
	count := 0
	err := filepath.WalkDir(outDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		if w.maxPages > 0 && count >= w.maxPages {
			return filepath.SkipAll
		}

		rel, err := filepath.Rel(outDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		pageURL := PageURL(siteURL, rel)
		if w.shouldSkip(pageURL) {
			return nil
		}

		parser, err := NewParser(pageURL, siteURL)
		if err != nil {
			return err
		}
		f, err := os.Open(p) //nolint:gosec // walking the configured output directory
		if err != nil {
			return err
		}
		result, err := parser.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", rel, err)
		}

		count++
		return fn(&Page{Path: rel, URL: pageURL, Result: result})
	})
	return count, err
}

// PageURL returns the URL a page file is served at. "index.html" files are
// served at their directory with a trailing slash; other pages without the
// .html extension.
func PageURL(siteURL, rel string) string {
	if !strings.HasSuffix(siteURL, "/") {
		siteURL += "/"
	}
	trimmed := strings.TrimSuffix(rel, path.Ext(rel))
	switch {
	case trimmed == "index":
		return siteURL
	case path.Base(trimmed) == "index":
		return siteURL + path.Dir(trimmed) + "/"
	default:
		return siteURL + trimmed
	}
}

// shouldSkip reports whether the page at pageURL matches an ignore pattern.
func (w *Walker) shouldSkip(pageURL string) bool {
	p := pageURL
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
		if j := strings.Index(p, "/"); j >= 0 {
			p = p[j:]
		} else {
			p = "/"
		}
	}
	for _, pattern := range w.ignorePatterns {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern checks if a URL path matches a glob pattern.
//   - "/docs/*" matches "/docs" and everything below it
//   - "*.html" matches by suffix
//   - other patterns use path.Match, on the whole path and on the last segment
func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(p, strings.TrimPrefix(pattern, "*")) {
		return true
	}
	if matched, err := path.Match(pattern, p); err == nil && matched {
		return true
	}
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := path.Match(pattern, path.Base(p))
		return err == nil && matched
	}
	return false
}
