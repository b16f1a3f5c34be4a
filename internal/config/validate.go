package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"github.com/nao1215/docsite/internal/integrity"
)

// baseURLSegment matches one path segment of the base URL.
var baseURLSegment = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)

// prismThemes is the catalogue of themes shipped with prism-react-renderer.
var prismThemes = map[string]bool{
	"dracula":              true,
	"duotoneDark":          true,
	"duotoneLight":         true,
	"github":               true,
	"gruvboxMaterialDark":  true,
	"gruvboxMaterialLight": true,
	"jettwaveDark":         true,
	"jettwaveLight":        true,
	"nightOwl":             true,
	"nightOwlLight":        true,
	"oceanicNext":          true,
	"okaidia":              true,
	"oneDark":              true,
	"oneLight":             true,
	"palenight":            true,
	"shadesOfPurple":       true,
	"synthwave84":          true,
	"ultramin":             true,
	"vsDark":               true,
	"vsLight":              true,
}

// knownExtensions are the markdown transforms the build understands.
var knownExtensions = map[string]bool{
	ExtensionMath:    true,
	ExtensionMermaid: true,
}

// Validate checks every field and cross-field invariant and returns all
// violations in source order. A nil result means the configuration is valid.
//
// Unlike Options.Validate, which stops at the first problem, this collects
// everything so that an operator can fix a configuration file in one pass.
func (c *SiteConfig) Validate() []error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(requireNonEmpty("title", c.Title))
	add(requireNonEmpty("tagline", c.Tagline))
	add(validateSiteURL(c.URL))
	add(validateBaseURL(c.BaseURL))
	add(validatePolicy("onBrokenLinks", c.OnBrokenLinks))
	add(validatePolicy("onBrokenMarkdownLinks", c.OnBrokenMarkdownLinks))

	errs = append(errs, c.I18n.validate()...)
	for i, s := range c.Stylesheets {
		errs = append(errs, s.validate(fmt.Sprintf("stylesheets[%d]", i), c.URL)...)
	}
	errs = append(errs, c.validateRegistrations()...)
	errs = append(errs, c.ThemeConfig.validate()...)
	errs = append(errs, c.validateMarkdown()...)

	return errs
}

// requireNonEmpty reports a missing or blank required field.
func requireNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// validateSiteURL checks that the canonical URL is an absolute http(s) URL
// without a path; the path belongs in baseUrl.
func validateSiteURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return invalid("url", "is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return invalid("url", "is not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("url", "must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return invalid("url", "must include a host, got %q", raw)
	}
	if u.Path != "" && u.Path != "/" {
		return invalid("url", "must not contain a path (%q); put it in baseUrl", u.Path)
	}
	return nil
}

// validateBaseURL checks that the base path starts and ends with "/" and that
// every segment between is a plain path segment.
func validateBaseURL(base string) error {
	if base == "" {
		return invalid("baseUrl", "is required")
	}
	if !strings.HasPrefix(base, "/") || !strings.HasSuffix(base, "/") {
		return invalid("baseUrl", "must start and end with \"/\", got %q", base)
	}
	if base == "/" {
		return nil
	}
	for _, seg := range strings.Split(strings.Trim(base, "/"), "/") {
		if seg == "." || seg == ".." || !baseURLSegment.MatchString(seg) {
			return invalid("baseUrl", "contains invalid path segment %q", seg)
		}
	}
	return nil
}

// validatePolicy rejects a policy that was present but unrecognised.
func validatePolicy(field string, p LinkPolicy) error {
	if p == policyInvalid {
		return invalid(field, "must be one of ignore, warn, fail")
	}
	return nil
}

// validate checks the locale set.
func (i I18n) validate() []error {
	var errs []error

	if len(i.Locales) == 0 {
		errs = append(errs, invalid("i18n.locales", "must contain at least one locale"))
	}

	seen := make(map[string]bool, len(i.Locales))
	for idx, loc := range i.Locales {
		field := fmt.Sprintf("i18n.locales[%d]", idx)
		if _, err := language.Parse(loc); err != nil {
			errs = append(errs, invalid(field, "%q is not a BCP 47 language tag", loc))
			continue
		}
		if seen[loc] {
			errs = append(errs, invalid(field, "duplicate locale %q", loc))
		}
		seen[loc] = true
	}

	switch {
	case strings.TrimSpace(i.DefaultLocale) == "":
		errs = append(errs, invalid("i18n.defaultLocale", "is required"))
	case !seen[i.DefaultLocale]:
		errs = append(errs, invalid("i18n.defaultLocale",
			"%q is not in locales %v", i.DefaultLocale, i.Locales))
	}
	return errs
}

// validate checks a stylesheet entry. siteURL decides whether the stylesheet
// is cross-origin.
func (s Stylesheet) validate(field, siteURL string) []error {
	var errs []error

	href, err := url.Parse(s.Href)
	switch {
	case strings.TrimSpace(s.Href) == "":
		errs = append(errs, invalid(field+".href", "is required"))
	case err != nil:
		errs = append(errs, invalid(field+".href", "is not a valid URL: %v", err))
	}

	switch s.CrossOrigin {
	case "", "anonymous", "use-credentials":
	default:
		errs = append(errs, invalid(field+".crossorigin",
			"must be \"anonymous\" or \"use-credentials\", got %q", s.CrossOrigin))
	}

	if s.Integrity != "" {
		if _, perr := integrity.Parse(s.Integrity); perr != nil {
			errs = append(errs, invalid(field+".integrity", "%v", perr))
		}
		// Browsers refuse SRI on cross-origin resources fetched without CORS.
		if err == nil && s.CrossOrigin == "" && isCrossOrigin(href, siteURL) {
			errs = append(errs, invalid(field+".crossorigin",
				"is required when integrity is set on a cross-origin stylesheet"))
		}
	}
	return errs
}

// isCrossOrigin reports whether href is served from a different origin than siteURL.
func isCrossOrigin(href *url.URL, siteURL string) bool {
	if !href.IsAbs() {
		return false
	}
	site, err := url.Parse(siteURL)
	if err != nil {
		return true
	}
	return !strings.EqualFold(href.Scheme, site.Scheme) || !strings.EqualFold(href.Host, site.Host)
}

// validateRegistrations resolves the options of every registration and checks
// that names are unique across presets, plugins and themes.
func (c *SiteConfig) validateRegistrations() []error {
	var errs []error
	seen := make(map[string]string)

	check := func(kind string, regs []Registration) {
		for i := range regs {
			field := fmt.Sprintf("%s[%d]", kind, i)
			if err := regs[i].resolve(); err != nil {
				errs = append(errs, err)
				continue
			}
			name := regs[i].Name
			if first, dup := seen[name]; dup {
				errs = append(errs, invalid(field, "duplicate registration %q (first declared at %s)", name, first))
				continue
			}
			seen[name] = field
		}
	}

	check("presets", c.Presets)
	check("plugins", c.Plugins)
	check("themes", c.Themes)
	return errs
}

// validate checks the theme configuration.
func (t ThemeConfig) validate() []error {
	var errs []error

	switch t.ColorMode.DefaultMode {
	case ColorModeLight, ColorModeDark:
	default:
		errs = append(errs, invalid("themeConfig.colorMode.defaultMode",
			"must be %q or %q, got %q", ColorModeLight, ColorModeDark, t.ColorMode.DefaultMode))
	}

	for i, item := range t.Navbar.Items {
		errs = append(errs, item.validate(fmt.Sprintf("themeConfig.navbar.items[%d]", i))...)
	}

	switch t.Footer.Style {
	case FooterStyleDark, FooterStyleLight:
	default:
		errs = append(errs, invalid("themeConfig.footer.style",
			"must be %q or %q, got %q", FooterStyleDark, FooterStyleLight, t.Footer.Style))
	}
	for gi, group := range t.Footer.Links {
		for li, link := range group.Items {
			field := fmt.Sprintf("themeConfig.footer.links[%d].items[%d]", gi, li)
			if (link.Href == "") == (link.To == "") {
				errs = append(errs, invalid(field, "must set exactly one of href and to"))
			}
		}
	}

	if !prismThemes[t.Prism.Theme] {
		errs = append(errs, invalid("themeConfig.prism.theme", "unknown prism theme %q", t.Prism.Theme))
	}
	if !prismThemes[t.Prism.DarkTheme] {
		errs = append(errs, invalid("themeConfig.prism.darkTheme", "unknown prism theme %q", t.Prism.DarkTheme))
	}

	if t.Mermaid.Options.MaxTextSize < 0 {
		errs = append(errs, invalid("themeConfig.mermaid.options.maxTextSize", "must be non-negative"))
	}
	return errs
}

// validate checks that a navbar item is exactly one of a doc reference and
// an external link.
func (i NavbarItem) validate(field string) []error {
	var errs []error

	hasDoc := i.DocID != ""
	hasHref := i.Href != ""
	switch {
	case hasDoc && hasHref:
		errs = append(errs, invalid(field, "sets both docId %q and href %q; use exactly one", i.DocID, i.Href))
	case !hasDoc && !hasHref:
		errs = append(errs, invalid(field, "must set either docId or href"))
	case hasHref:
		u, err := url.Parse(i.Href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, invalid(field+".href", "%q is not an absolute http(s) URL", i.Href))
		}
		if i.Type == "doc" {
			errs = append(errs, invalid(field+".type", "doc item must set docId, not href"))
		}
	case hasDoc:
		if strings.HasPrefix(i.DocID, "/") || strings.Contains(i.DocID, "://") {
			errs = append(errs, invalid(field+".docId", "%q looks like a path or URL, not a document id", i.DocID))
		}
	}

	if strings.TrimSpace(i.Label) == "" {
		errs = append(errs, invalid(field+".label", "is required"))
	}
	switch i.Position {
	case "", PositionLeft, PositionRight:
	default:
		errs = append(errs, invalid(field+".position", "must be %q or %q, got %q", PositionLeft, PositionRight, i.Position))
	}
	return errs
}

// validateMarkdown checks the extension set and its dependencies.
func (c *SiteConfig) validateMarkdown() []error {
	var errs []error
	seen := make(map[string]bool)
	for i, ext := range c.Markdown.Extensions {
		field := fmt.Sprintf("markdown.extensions[%d]", i)
		if !knownExtensions[ext] {
			errs = append(errs, invalid(field, "unknown extension %q", ext))
			continue
		}
		if seen[ext] {
			errs = append(errs, invalid(field, "duplicate extension %q", ext))
		}
		seen[ext] = true
	}
	if seen[ExtensionMermaid] && !c.HasRegistration(ThemeMermaid) {
		errs = append(errs, invalid("markdown.extensions",
			"mermaid requires the %q theme to be registered", ThemeMermaid))
	}
	return errs
}

// DocResolver answers whether a document id exists in the document tree.
type DocResolver interface {
	Has(id string) bool
}

// ValidateDocRefs checks that every navbar doc reference names an existing
// document. It runs once the document tree is known, after Parse.
func (c *SiteConfig) ValidateDocRefs(docs DocResolver) []error {
	var errs []error
	for i, item := range c.ThemeConfig.Navbar.Items {
		if !item.IsDocRef() {
			continue
		}
		if !docs.Has(item.DocID) {
			errs = append(errs, invalid(fmt.Sprintf("themeConfig.navbar.items[%d].docId", i),
				"no document with id %q", item.DocID))
		}
	}
	return errs
}
