package config

import (
	"strconv"
	"strings"
	"time"
)

// SiteConfig is the validated configuration of a documentation site.
// It is constructed once by Load or Parse and is read-only afterwards;
// callers pass it explicitly to the build routine.
type SiteConfig struct {
	// Title is the site title shown in the navbar and page titles. Required.
	Title string `yaml:"title"`

	// Tagline is the subtitle shown on the landing page. Required.
	Tagline string `yaml:"tagline"`

	// URL is the canonical scheme and host of the deployed site,
	// e.g. "https://awslabs.github.io". Required.
	URL string `yaml:"url"`

	// BaseURL is the path under URL where the site is served, e.g. "/ai-on-eks/".
	// It always starts and ends with a slash.
	BaseURL string `yaml:"baseUrl"`

	// TrailingSlash controls whether generated routes end with a slash.
	// Nil leaves the choice to the hosting provider.
	TrailingSlash *bool `yaml:"trailingSlash,omitempty"`

	// OnBrokenLinks is the policy applied to broken hyperlinks.
	OnBrokenLinks LinkPolicy `yaml:"onBrokenLinks,omitempty"`

	// OnBrokenMarkdownLinks is the policy applied to broken links between
	// markdown documents.
	OnBrokenMarkdownLinks LinkPolicy `yaml:"onBrokenMarkdownLinks,omitempty"`

	Favicon          string `yaml:"favicon,omitempty"`
	OrganizationName string `yaml:"organizationName,omitempty"`
	ProjectName      string `yaml:"projectName,omitempty"`
	GithubHost       string `yaml:"githubHost,omitempty"`

	I18n        I18n         `yaml:"i18n"`
	Stylesheets []Stylesheet `yaml:"stylesheets,omitempty"`

	// Presets, Plugins and Themes are registrations in declaration order.
	Presets []Registration `yaml:"presets,omitempty"`
	Plugins []Registration `yaml:"plugins,omitempty"`
	Themes  []Registration `yaml:"themes,omitempty"`

	ThemeConfig ThemeConfig `yaml:"themeConfig"`
	Markdown    Markdown    `yaml:"markdown,omitempty"`
}

// I18n is the locale set of the site.
type I18n struct {
	// DefaultLocale must be a member of Locales.
	DefaultLocale string `yaml:"defaultLocale"`

	// Locales is an ordered set of BCP 47 language tags.
	Locales []string `yaml:"locales"`
}

// Stylesheet is an external stylesheet injected into every page.
type Stylesheet struct {
	Href string `yaml:"href"`
	Type string `yaml:"type,omitempty"`

	// Integrity is a subresource integrity metadata string,
	// e.g. "sha384-<base64 digest>". Empty disables the check.
	Integrity string `yaml:"integrity,omitempty"`

	// CrossOrigin is "", "anonymous" or "use-credentials".
	CrossOrigin string `yaml:"crossorigin,omitempty"`
}

// ThemeConfig holds the presentation settings consumed by the theme.
type ThemeConfig struct {
	ColorMode ColorMode     `yaml:"colorMode"`
	Navbar    Navbar        `yaml:"navbar"`
	Footer    Footer        `yaml:"footer"`
	Prism     Prism         `yaml:"prism"`
	Mermaid   MermaidConfig `yaml:"mermaid,omitempty"`
	Docs      DocsTheme     `yaml:"docs,omitempty"`
}

// Color modes accepted by ColorMode.DefaultMode.
const (
	ColorModeLight = "light"
	ColorModeDark  = "dark"
)

// ColorMode is the light/dark mode policy.
type ColorMode struct {
	DefaultMode               string `yaml:"defaultMode"`
	DisableSwitch             bool   `yaml:"disableSwitch"`
	RespectPrefersColorScheme bool   `yaml:"respectPrefersColorScheme"`
}

// Navbar positions.
const (
	PositionLeft  = "left"
	PositionRight = "right"
)

// Navbar is the top navigation bar.
type Navbar struct {
	Title string       `yaml:"title,omitempty"`
	Logo  *Logo        `yaml:"logo,omitempty"`
	Items []NavbarItem `yaml:"items"`
}

// Logo is the navbar logo image.
type Logo struct {
	Alt string `yaml:"alt"`
	Src string `yaml:"src"`
}

// NavbarItem is either a reference to a document (DocID) or an external link
// (Href). Exactly one of the two must be set.
type NavbarItem struct {
	Type     string `yaml:"type,omitempty"`
	DocID    string `yaml:"docId,omitempty"`
	Href     string `yaml:"href,omitempty"`
	Label    string `yaml:"label"`
	Position string `yaml:"position,omitempty"`
}

// IsDocRef reports whether the item points at a document.
func (i NavbarItem) IsDocRef() bool {
	return i.DocID != ""
}

// Footer styles.
const (
	FooterStyleDark  = "dark"
	FooterStyleLight = "light"
)

// Footer is the page footer.
type Footer struct {
	Style string        `yaml:"style"`
	Links []FooterGroup `yaml:"links,omitempty"`

	// Copyright may contain the placeholder "{year}".
	Copyright string `yaml:"copyright,omitempty"`
}

// FooterGroup is a titled column of footer links.
type FooterGroup struct {
	Title string       `yaml:"title"`
	Items []FooterLink `yaml:"items"`
}

// FooterLink is a single footer link.
type FooterLink struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href,omitempty"`
	To    string `yaml:"to,omitempty"`
}

// RenderCopyright returns the copyright text with "{year}" replaced by the
// year of now.
func (f Footer) RenderCopyright(now time.Time) string {
	return strings.ReplaceAll(f.Copyright, "{year}", strconv.Itoa(now.Year()))
}

// Prism is the syntax highlighting configuration: a light and dark theme pair.
type Prism struct {
	Theme               string   `yaml:"theme"`
	DarkTheme           string   `yaml:"darkTheme"`
	AdditionalLanguages []string `yaml:"additionalLanguages,omitempty"`
}

// MermaidConfig configures diagram rendering when the mermaid extension is on.
type MermaidConfig struct {
	Theme   MermaidTheme   `yaml:"theme,omitempty"`
	Options MermaidOptions `yaml:"options,omitempty"`
}

// MermaidTheme is the light/dark mermaid theme pair.
type MermaidTheme struct {
	Light string `yaml:"light,omitempty"`
	Dark  string `yaml:"dark,omitempty"`
}

// MermaidOptions are options passed to mermaid.
type MermaidOptions struct {
	MaxTextSize int `yaml:"maxTextSize,omitempty"`
}

// DocsTheme configures the docs sidebar.
type DocsTheme struct {
	Sidebar SidebarTheme `yaml:"sidebar,omitempty"`
}

// SidebarTheme configures sidebar behaviour.
type SidebarTheme struct {
	Hideable               bool `yaml:"hideable,omitempty"`
	AutoCollapseCategories bool `yaml:"autoCollapseCategories,omitempty"`
}

// Markdown extension names.
const (
	ExtensionMath    = "math"
	ExtensionMermaid = "mermaid"
)

// Markdown lists the transforms applied uniformly to every document.
type Markdown struct {
	Extensions []string `yaml:"extensions,omitempty"`
}

// HasExtension reports whether the named extension is enabled.
func (m Markdown) HasExtension(name string) bool {
	for _, e := range m.Extensions {
		if e == name {
			return true
		}
	}
	return false
}
