package config

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Registration names with a known options schema.
const (
	PresetClassic       = "classic"
	PresetClassicFull   = "@docusaurus/preset-classic"
	PluginLunrSearch    = "docusaurus-lunr-search"
	ThemeMermaid        = "@docusaurus/theme-mermaid"
	defaultDocsPath     = "docs"
	defaultDocsRoute    = "docs"
	unnamedRegistration = "(unnamed)"
)

// Registration is a preset, plugin or theme together with its options.
//
// The source accepts three shapes: a bare name, a [name, options] tuple and a
// {name, options} mapping. Options of a known registration are decoded into
// the matching typed field and unknown keys are rejected. Options of any other
// registration are kept as-is in Extra.
type Registration struct {
	Name string

	Classic    *ClassicOptions
	LunrSearch *LunrSearchOptions
	Extra      map[string]any

	raw *yaml.Node
}

// ClassicOptions are the options of the classic preset.
type ClassicOptions struct {
	Docs  *DocsPluginOptions   `yaml:"docs,omitempty"`
	Blog  *BlogOptions         `yaml:"blog,omitempty"`
	Theme *ClassicThemeOptions `yaml:"theme,omitempty"`
	Pages map[string]any       `yaml:"pages,omitempty"`
}

// DocsPluginOptions configure the docs content plugin.
type DocsPluginOptions struct {
	// Path is the docs directory relative to the site directory.
	Path string `yaml:"path,omitempty"`

	// RouteBasePath is the URL segment under BaseURL where docs are served.
	RouteBasePath string `yaml:"routeBasePath,omitempty"`

	SidebarPath   string   `yaml:"sidebarPath,omitempty"`
	EditURL       string   `yaml:"editUrl,omitempty"`
	RemarkPlugins []string `yaml:"remarkPlugins,omitempty"`
	RehypePlugins []string `yaml:"rehypePlugins,omitempty"`
}

// BlogOptions configure the blog content plugin. "blog: false" disables it.
type BlogOptions struct {
	Disabled        bool   `yaml:"-"`
	Path            string `yaml:"path,omitempty"`
	RouteBasePath   string `yaml:"routeBasePath,omitempty"`
	ShowReadingTime bool   `yaml:"showReadingTime,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *BlogOptions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var enabled bool
		if err := node.Decode(&enabled); err != nil {
			return fmt.Errorf("blog must be false or a mapping: %w", err)
		}
		b.Disabled = !enabled
		return nil
	}
	type plain BlogOptions
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*b = BlogOptions(p)
	return nil
}

// ClassicThemeOptions configure the classic theme.
type ClassicThemeOptions struct {
	CustomCSS StringList `yaml:"customCss,omitempty"`
}

// LunrSearchOptions configure the offline lunr search plugin.
type LunrSearchOptions struct {
	Languages     []string `yaml:"languages,omitempty"`
	IndexBaseURL  bool     `yaml:"indexBaseUrl,omitempty"`
	ExcludeRoutes []string `yaml:"excludeRoutes,omitempty"`
	MaxHits       int      `yaml:"maxHits,omitempty"`
}

// StringList decodes either a single string or a sequence of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = StringList{node.Value}
		return nil
	}
	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

// registrationMapping is the {name, options} shape of a registration.
type registrationMapping struct {
	Name    string    `yaml:"name"`
	Options yaml.Node `yaml:"options"`
}

// UnmarshalYAML implements yaml.Unmarshaler. It only captures the name and the
// raw options; resolve decodes the options once the whole file is read.
func (r *Registration) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Name = node.Value
		return nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 || len(node.Content) > 2 {
			return &PluginConfigError{
				Plugin: unnamedRegistration,
				Err:    fmt.Errorf("tuple form must be [name] or [name, options], got %d elements", len(node.Content)),
			}
		}
		if node.Content[0].Kind != yaml.ScalarNode {
			return &PluginConfigError{Plugin: unnamedRegistration, Err: errors.New("first tuple element must be the name")}
		}
		r.Name = node.Content[0].Value
		if len(node.Content) == 2 {
			r.raw = node.Content[1]
		}
		return nil
	case yaml.MappingNode:
		var m registrationMapping
		if err := node.Decode(&m); err != nil {
			return &PluginConfigError{Plugin: unnamedRegistration, Err: err}
		}
		r.Name = m.Name
		if m.Options.Kind != 0 {
			opts := m.Options
			r.raw = &opts
		}
		return nil
	default:
		return &PluginConfigError{Plugin: unnamedRegistration, Err: errors.New("registration must be a name, a tuple or a mapping")}
	}
}

// resolve decodes the captured options against the schema for r.Name.
// It is idempotent: once the raw options are consumed, later calls only
// re-check the name.
func (r *Registration) resolve() error {
	raw := r.raw
	r.raw = nil
	if r.Name == "" {
		return &PluginConfigError{Plugin: unnamedRegistration, Err: errors.New("name is required")}
	}
	if raw != nil && raw.Kind == yaml.ScalarNode && raw.Tag == "!!null" {
		raw = nil
	}

	switch r.Name {
	case PresetClassic, PresetClassicFull:
		if r.Classic == nil {
			r.Classic = &ClassicOptions{}
		}
		if raw != nil {
			opts := &ClassicOptions{}
			if err := decodeStrict(raw, opts); err != nil {
				return &PluginConfigError{Plugin: r.Name, Err: err}
			}
			r.Classic = opts
		}
	case PluginLunrSearch:
		if r.LunrSearch == nil {
			r.LunrSearch = &LunrSearchOptions{}
		}
		if raw != nil {
			opts := &LunrSearchOptions{}
			if err := decodeStrict(raw, opts); err != nil {
				return &PluginConfigError{Plugin: r.Name, Err: err}
			}
			r.LunrSearch = opts
		}
		if r.LunrSearch.MaxHits < 0 {
			return &PluginConfigError{Plugin: r.Name, Err: errors.New("maxHits must be non-negative")}
		}
	case ThemeMermaid:
		if raw != nil {
			return &PluginConfigError{Plugin: r.Name, Err: errors.New("takes no options")}
		}
	default:
		if raw == nil {
			return nil
		}
		if raw.Kind != yaml.MappingNode {
			return &PluginConfigError{Plugin: r.Name, Err: errors.New("options must be a mapping")}
		}
		extra := make(map[string]any)
		if err := raw.Decode(&extra); err != nil {
			return &PluginConfigError{Plugin: r.Name, Err: err}
		}
		r.Extra = extra
	}
	return nil
}

// decodeStrict decodes node into out, rejecting keys that out does not declare.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// Registrations returns presets, plugins and themes in declaration order.
func (c *SiteConfig) Registrations() []Registration {
	all := make([]Registration, 0, len(c.Presets)+len(c.Plugins)+len(c.Themes))
	all = append(all, c.Presets...)
	all = append(all, c.Plugins...)
	all = append(all, c.Themes...)
	return all
}

// HasRegistration reports whether a preset, plugin or theme named name is registered.
func (c *SiteConfig) HasRegistration(name string) bool {
	for _, r := range c.Registrations() {
		if r.Name == name {
			return true
		}
	}
	return false
}

// DocsOptions returns the docs plugin options of the classic preset with
// defaults applied. Sites without the classic preset get the defaults.
func (c *SiteConfig) DocsOptions() DocsPluginOptions {
	opts := DocsPluginOptions{}
	for _, p := range c.Presets {
		if p.Classic != nil && p.Classic.Docs != nil {
			opts = *p.Classic.Docs
			break
		}
	}
	if opts.Path == "" {
		opts.Path = defaultDocsPath
	}
	if opts.RouteBasePath == "" {
		opts.RouteBasePath = defaultDocsRoute
	}
	return opts
}
