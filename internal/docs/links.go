package docs

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Link is a link or image destination found in a markdown document.
type Link struct {
	Destination string
	Line        int
	Image       bool
}

// Class is how the build treats a link destination.
type Class int

const (
	// ClassSkip covers empty destinations and same-page anchors.
	ClassSkip Class = iota

	// ClassExternal is a URL with a scheme, or protocol-relative. Not checked.
	ClassExternal

	// ClassDocReference is a relative path to a .md or .mdx file.
	ClassDocReference

	// ClassHyperlink is an absolute site path such as "/docs/intro".
	ClassHyperlink

	// ClassRelative is any other relative path: a co-located asset or a
	// route relative to the current page.
	ClassRelative
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case ClassExternal:
		return "external"
	case ClassDocReference:
		return "doc-reference"
	case ClassHyperlink:
		return "hyperlink"
	case ClassRelative:
		return "relative"
	default:
		return "skip"
	}
}

// markdown parses documents for link extraction. Only parsing is used, never
// rendering.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ExtractLinks returns every link and image destination in a markdown body,
// in document order. Destinations inside code spans and code blocks are not
// links and are not returned. lineOffset is added to every line number.
func ExtractLinks(body []byte, lineOffset int) []Link {
	root := markdown.Parser().Parse(text.NewReader(body))

	var links []Link
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			links = append(links, Link{
				Destination: string(node.Destination),
				Line:        lineOf(body, node) + lineOffset,
			})
		case *ast.Image:
			links = append(links, Link{
				Destination: string(node.Destination),
				Line:        lineOf(body, node) + lineOffset,
				Image:       true,
			})
		}
		return ast.WalkContinue, nil
	})
	return links
}

// lineOf returns the 1-based line of an inline node: the line of its first
// text segment, or of the enclosing block when it has none.
func lineOf(src []byte, n ast.Node) int {
	offset := -1
	for c := n.FirstChild(); c != nil && offset < 0; c = c.FirstChild() {
		if t, ok := c.(*ast.Text); ok {
			offset = t.Segment.Start
		}
	}
	if offset < 0 {
		for p := n.Parent(); p != nil; p = p.Parent() {
			if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
				offset = p.Lines().At(0).Start
				break
			}
		}
	}
	if offset < 0 {
		return 0
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}

// Classify decides how dest is checked.
func Classify(dest string) Class {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") {
		return ClassSkip
	}
	if strings.HasPrefix(dest, "//") {
		return ClassExternal
	}
	u, err := url.Parse(dest)
	if err != nil {
		// Unparseable destinations are left to the browser.
		return ClassExternal
	}
	if u.Scheme != "" {
		return ClassExternal
	}
	p := u.Path
	switch {
	case p == "":
		return ClassSkip
	case strings.HasPrefix(p, "/"):
		return ClassHyperlink
	case isMarkdown(p):
		return ClassDocReference
	default:
		return ClassRelative
	}
}

// StripFragment returns the path of dest without query and fragment,
// percent-decoded.
func StripFragment(dest string) string {
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	if unescaped, err := url.PathUnescape(dest); err == nil {
		return unescaped
	}
	return dest
}

// ResolveRelative resolves a relative destination against the source file
// it appears in. Both are slash-separated and relative to the docs root.
// ok is false if the result escapes the docs root.
func ResolveRelative(source, dest string) (string, bool) {
	joined := path.Join(path.Dir(source), StripFragment(dest))
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	return joined, true
}

func isMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".mdx":
		return true
	default:
		return false
	}
}
