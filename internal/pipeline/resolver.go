package pipeline

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nao1215/docsite/internal/docs"
)

// siteResolver answers whether a URL path on the site is served: by a
// document or page route, or by a file of a static or output directory.
type siteResolver struct {
	tree *docs.Tree

	// base is the base URL with both slashes, e.g. "/ai-on-eks/".
	base string

	// dirs are searched in order for files under base.
	dirs []string
}

func newSiteResolver(tree *docs.Tree, base string, dirs ...string) *siteResolver {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &siteResolver{tree: tree, base: base, dirs: dirs}
}

// exists reports whether the URL path p is served.
func (r *siteResolver) exists(p string) bool {
	p = docs.NormalizeRoute(p)
	if r.tree.HasRoute(p) {
		return true
	}

	// Files are served under the base URL only.
	rel, ok := strings.CutPrefix(strings.TrimSuffix(p, "/")+"/", r.base)
	if !ok {
		return false
	}
	rel = strings.TrimSuffix(rel, "/")

	for _, dir := range r.dirs {
		if dir == "" {
			continue
		}
		candidates := []string{path.Join(rel, "index.html")}
		if rel != "" {
			candidates = append(candidates, rel, rel+".html")
		}
		for _, c := range candidates {
			if isFile(filepath.Join(dir, filepath.FromSlash(c))) {
				return true
			}
		}
	}
	return false
}

// withBase prefixes a site-absolute markdown link with the base URL, unless
// it already carries it.
func (r *siteResolver) withBase(p string) string {
	if r.base == "/" || strings.HasPrefix(p, r.base) || p+"/" == r.base {
		return p
	}
	return r.base + strings.TrimPrefix(p, "/")
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
