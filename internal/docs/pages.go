package docs

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// pageExtensions are the files of a pages directory that become routes.
var pageExtensions = map[string]bool{
	".md": true, ".mdx": true,
	".js": true, ".jsx": true,
	".ts": true, ".tsx": true,
}

// AddPages registers the routes of a standalone pages directory
// (conventionally src/pages) under baseURL. Each page file routes to its path
// without extension and index files route to their directory. A missing
// directory adds nothing.
func (t *Tree) AddPages(dir, baseURL string) (int, error) {
	added := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		name := d.Name()
		if p != dir && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(path.Ext(name))
		if d.IsDir() || !pageExtensions[ext] || strings.HasSuffix(strings.ToLower(name), ".test"+ext) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(filepath.ToSlash(rel), path.Ext(rel))
		if path.Base(rel) == "index" {
			rel = path.Dir(rel)
		}
		t.AddRoute(joinRoute(baseURL, rel))
		added++
		return nil
	})
	return added, err
}
