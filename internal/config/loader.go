package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a configuration source.
type Format string

// Supported configuration formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// DefaultConfigFiles are the file names FindConfigFile looks for in the
// working directory, in order.
var DefaultConfigFiles = []string{
	"docsite.yaml",
	"docsite.yml",
	"docsite.json",
	"docsite.toml",
}

// Theme defaults applied when the keys are omitted.
const (
	defaultPrismTheme  = "palenight"
	defaultColorMode   = ColorModeLight
	defaultFooterStyle = FooterStyleLight
)

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads and parses the configuration file at path.
// If the file does not exist, it returns ErrConfigNotFound.
// Parse errors are returned unwrapped so that ValidationErrors can list them.
func Load(path string) (*SiteConfig, error) {
	cfg, _, err := LoadSource(path)
	return cfg, err
}

// LoadSource is Load that also returns the raw file content. The content is
// returned whenever the file could be read, even if parsing failed.
func LoadSource(path string) (*SiteConfig, []byte, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes a configuration source and validates it. It either returns a
// fully valid SiteConfig or an error; there is no partial result.
//
// YAML and JSON are decoded by yaml.v3 directly, JSON being a subset of YAML.
// TOML is decoded into a generic tree and re-encoded as YAML so that all three
// formats share one set of struct tags and one strict decoder.
func Parse(data []byte, format Format) (*SiteConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptySource
	}

	switch format {
	case FormatYAML, FormatJSON:
	case FormatTOML:
		var tree map[string]any
		if _, err := toml.Decode(string(data), &tree); err != nil {
			return nil, &ValidationError{Field: "(source)", Message: fmt.Sprintf("malformed TOML: %v", err)}
		}
		converted, err := yaml.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("failed to normalise TOML: %w", err)
		}
		data = converted
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	var cfg SiteConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySource
		}
		var pluginErr *PluginConfigError
		if errors.As(err, &pluginErr) {
			return nil, err
		}
		return nil, &ValidationError{Field: "(source)", Message: err.Error()}
	}

	cfg.applyDefaults()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}

// applyDefaults fills optional theme keys that Docusaurus also defaults.
func (c *SiteConfig) applyDefaults() {
	if c.ThemeConfig.ColorMode.DefaultMode == "" {
		c.ThemeConfig.ColorMode.DefaultMode = defaultColorMode
	}
	if c.ThemeConfig.Footer.Style == "" {
		c.ThemeConfig.Footer.Style = defaultFooterStyle
	}
	if c.ThemeConfig.Prism.Theme == "" {
		c.ThemeConfig.Prism.Theme = defaultPrismTheme
	}
	if c.ThemeConfig.Prism.DarkTheme == "" {
		c.ThemeConfig.Prism.DarkTheme = c.ThemeConfig.Prism.Theme
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for each of DefaultConfigFiles in the current directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range DefaultConfigFiles {
		candidate := filepath.Join(cwd, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
