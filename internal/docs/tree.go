package docs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// ErrDocsDirNotFound is returned when the docs directory does not exist.
var ErrDocsDirNotFound = errors.New("docs directory not found")

// Doc is one markdown document of the tree.
type Doc struct {
	// ID is the document id used by navbar items and sidebars,
	// e.g. "guides/setup".
	ID string

	// Source is the file path relative to the docs root, slash-separated.
	Source string

	// Route is the URL path the document is served at, including the base URL.
	Route string

	// Links are the link and image destinations in document order.
	Links []Link
}

// DuplicateIDError reports two documents that derive the same id.
type DuplicateIDError struct {
	ID    string
	First string
	Other string
}

// Error implements error.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate document id %q: %s and %s", e.ID, e.First, e.Other)
}

// FrontMatterError reports a document whose front matter cannot be decoded.
type FrontMatterError struct {
	Source string
	Err    error
}

// Error implements error.
func (e *FrontMatterError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Unwrap returns the decode error.
func (e *FrontMatterError) Unwrap() error {
	return e.Err
}

// Tree is the indexed document tree of a site. It is built once by Index and
// only read afterwards.
type Tree struct {
	root     string
	base     string
	byID     map[string]*Doc
	bySource map[string]*Doc
	routes   map[string]bool
	order    []*Doc
}

// Index walks root for .md and .mdx files and builds the document tree.
// routeBase is the docs route under baseURL ("docs" serves documents at
// /<baseURL>/docs/...; "" or "/" serves them at the base URL itself).
//
// Files and directories whose name starts with "_" or "." are skipped;
// "_" marks partials that are imported, not routed.
func Index(root, routeBase, baseURL string) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocsDirNotFound, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDocsDirNotFound, root)
	}

	t := &Tree{
		root:     root,
		base:     joinRoute(baseURL, routeBase),
		byID:     make(map[string]*Doc),
		bySource: make(map[string]*Doc),
		routes:   make(map[string]bool),
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isMarkdown(name) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		return t.add(p, filepath.ToSlash(rel))
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(t.order, func(a, b *Doc) int { return strings.Compare(a.Source, b.Source) })
	return t, nil
}

// add reads one document and registers it.
func (t *Tree) add(abs, rel string) error {
	src, err := os.ReadFile(abs) //nolint:gosec // walking the configured docs directory
	if err != nil {
		return err
	}
	fm, body, offset, err := splitFrontMatter(src)
	if err != nil {
		return &FrontMatterError{Source: rel, Err: err}
	}
	if fm.Draft {
		return nil
	}

	id := docID(rel, fm.ID)
	if prev, dup := t.byID[id]; dup {
		return &DuplicateIDError{ID: id, First: prev.Source, Other: rel}
	}

	doc := &Doc{
		ID:     id,
		Source: rel,
		Route:  t.route(rel, fm.Slug),
		Links:  ExtractLinks(body, offset),
	}
	t.byID[id] = doc
	t.bySource[rel] = doc
	t.routes[doc.Route] = true
	t.order = append(t.order, doc)
	return nil
}

// docID derives the id from the path without extension. A front matter id
// replaces the last segment.
func docID(rel, override string) string {
	id := strings.TrimSuffix(rel, path.Ext(rel))
	if override == "" {
		return id
	}
	if dir := path.Dir(id); dir != "." {
		return dir + "/" + override
	}
	return override
}

// route derives the URL path of a document.
func (t *Tree) route(rel, slug string) string {
	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}
	switch {
	case strings.HasPrefix(slug, "/"):
		return joinRoute(t.base, slug)
	case slug != "":
		return joinRoute(t.base, path.Join(dir, slug))
	case isIndexFile(rel):
		return joinRoute(t.base, dir)
	default:
		return joinRoute(t.base, strings.TrimSuffix(rel, path.Ext(rel)))
	}
}

// isIndexFile reports whether rel routes to its directory: index, README,
// or a file named after its parent directory ("guides/guides.md").
func isIndexFile(rel string) bool {
	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	switch strings.ToLower(name) {
	case "index", "readme":
		return true
	}
	return name == path.Base(path.Dir(rel))
}

// joinRoute joins URL path elements into a clean absolute path without a
// trailing slash, except for the root "/".
func joinRoute(elems ...string) string {
	return NormalizeRoute(path.Join(append([]string{"/"}, elems...)...))
}

// NormalizeRoute cleans a URL path for route lookup: query and fragment are
// dropped and a trailing slash is removed.
func NormalizeRoute(p string) string {
	p = StripFragment(p)
	if p == "" {
		return "/"
	}
	p = path.Clean("/" + p)
	if p == "/" {
		return p
	}
	return strings.TrimSuffix(p, "/")
}

// Root returns the docs directory the tree was indexed from.
func (t *Tree) Root() string {
	return t.root
}

// Len returns the number of documents.
func (t *Tree) Len() int {
	return len(t.order)
}

// Has reports whether a document with id exists. It satisfies
// config.DocResolver.
func (t *Tree) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// BySource returns the document at the slash-separated path rel.
func (t *Tree) BySource(rel string) (*Doc, bool) {
	d, ok := t.bySource[rel]
	return d, ok
}

// Route returns the URL path of the document with id.
func (t *Tree) Route(id string) (string, bool) {
	d, ok := t.byID[id]
	if !ok {
		return "", false
	}
	return d.Route, true
}

// AddRoute registers a route served by something other than a document,
// such as a standalone page.
func (t *Tree) AddRoute(route string) {
	t.routes[NormalizeRoute(route)] = true
}

// HasRoute reports whether p is a known route.
func (t *Tree) HasRoute(p string) bool {
	return t.routes[NormalizeRoute(p)]
}

// Docs returns all documents ordered by source path.
func (t *Tree) Docs() []*Doc {
	return slices.Clone(t.order)
}
