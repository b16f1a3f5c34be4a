package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// linkAttrs maps the elements whose references a build checks to the
// attribute holding the reference.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"source": "src",
	"iframe": "src",
}

// Parser extracts references from a built HTML page.
//
// Pages are parsed with golang.org/x/net/html, which tolerates the markup
// a static generator emits for hydrated pages.
type Parser struct {
	// page is the URL the page is served at, for resolving relative references.
	page *url.URL

	// site is the canonical site URL including the base path.
	site *url.URL
}

// PageLink is one reference found in a page.
type PageLink struct {
	// Element and Attr name where the reference was found, e.g. "a" and "href".
	Element string
	Attr    string

	// Raw is the attribute value as written.
	Raw string

	// Resolved is Raw resolved against the page URL.
	Resolved string

	// Internal is true if Resolved is served by this site: same host and
	// under the base path.
	Internal bool
}

// ParseResult contains the references extracted from a page.
type ParseResult struct {
	// Links are all checked references in document order.
	Links []PageLink
}

// InternalLinks returns the links served by this site.
func (r *ParseResult) InternalLinks() []PageLink {
	var out []PageLink
	for _, l := range r.Links {
		if l.Internal {
			out = append(out, l)
		}
	}
	return out
}

// NewParser creates a parser for the page served at pageURL on the site
// whose canonical URL including base path is siteURL.
func NewParser(pageURL, siteURL string) (*Parser, error) {
	page, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	site, err := url.Parse(siteURL)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(site.Path, "/") {
		site.Path += "/"
	}
	return &Parser{page: page, site: site}, nil
}

// Parse parses HTML content and extracts its references.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links: make([]PageLink, 0),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	if n.Data == "link" {
		// Only references the browser loads or navigates to.
		switch strings.ToLower(getAttr(n, "rel")) {
		case "preconnect", "dns-prefetch", "canonical", "alternate":
			return
		}
	}

	attr, ok := linkAttrs[n.Data]
	if !ok {
		return
	}
	raw := strings.TrimSpace(getAttr(n, attr))
	resolved := p.resolveURL(raw)
	if resolved == nil {
		return
	}
	result.Links = append(result.Links, PageLink{
		Element:  n.Data,
		Attr:     attr,
		Raw:      raw,
		Resolved: resolved.String(),
		Internal: p.isInternal(resolved),
	})
}

// resolveURL resolves a reference against the page URL. It returns nil for
// references that are not navigations or loads: empty values, same-page
// anchors and non-network schemes.
func (p *Parser) resolveURL(href string) *url.URL {
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:", "blob:"} {
		if strings.HasPrefix(lower, scheme) {
			return nil
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	return p.page.ResolveReference(u)
}

// isInternal reports whether u is served by this site.
func (p *Parser) isInternal(u *url.URL) bool {
	if u.Host != "" && !strings.EqualFold(u.Host, p.site.Host) {
		return false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Path+"/" == p.site.Path || strings.HasPrefix(u.Path, p.site.Path)
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
