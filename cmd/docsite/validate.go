package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docsite/internal/config"
)

// errInvalidConfig is returned by commands after the individual problems of
// a configuration have been printed.
var errInvalidConfig = errors.New("invalid configuration")

// loadedConfig is a parsed site configuration together with its source.
type loadedConfig struct {
	Config *config.SiteConfig
	Path   string
	Source []byte
}

// loadSiteConfig finds, reads and parses the site configuration. configFlag
// is the -c flag value; when empty the working directory is searched.
// Parse errors are returned as is so that callers can list them.
func loadSiteConfig(configFlag string) (*loadedConfig, error) {
	path := config.FindConfigFile(configFlag)
	if path == "" {
		if configFlag != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configFlag)
		}
		return nil, fmt.Errorf("%w in current directory (looked for %s)",
			config.ErrConfigNotFound, strings.Join(config.DefaultConfigFiles, ", "))
	}

	cfg, data, err := config.LoadSource(path)
	if err != nil {
		if data == nil {
			return nil, err
		}
		return &loadedConfig{Path: path, Source: data}, err
	}
	return &loadedConfig{Config: cfg, Path: path, Source: data}, nil
}

// printConfigErrors writes every problem of a failed parse to w and returns
// errInvalidConfig wrapped with the file path and problem count.
func printConfigErrors(w io.Writer, path string, err error) error {
	problems := config.ValidationErrors(err)
	fmt.Fprintf(w, "%s:\n", path)
	for _, p := range problems {
		fmt.Fprintf(w, "  - %v\n", p)
	}
	return fmt.Errorf("%w: %s (%d problem(s))", errInvalidConfig, path, len(problems))
}

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the site configuration",
		Long: `Validate loads the site configuration and reports every problem found:
malformed URLs and base paths, unknown link policies, locales that are not
BCP 47 tags, a default locale missing from the locale list, bad integrity
metadata, unknown plugin options and inconsistent navbar items.

The command exits non-zero if any problem is found.

Examples:
  # Validate docsite.yaml (or .yml, .json, .toml) in the current directory
  docsite validate

  # Validate a specific file
  docsite validate -c website/docsite.toml`,
		Args: cobra.NoArgs,
		RunE: runValidateCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: docsite.yaml in current directory)")

	return cmd
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, _ []string) error {
	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	logger := newLogger(cmd)

	loaded, err := loadSiteConfig(configFlag)
	if loaded == nil {
		return err
	}
	if err != nil {
		return printConfigErrors(cmd.ErrOrStderr(), loaded.Path, err)
	}

	cfg := loaded.Config
	logger.Debug("configuration loaded",
		"path", loaded.Path,
		"title", cfg.Title,
		"locales", cfg.I18n.Locales,
	)

	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", loaded.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "  site:    %s (%s)\n", cfg.Title, strings.TrimSuffix(cfg.URL, "/")+cfg.BaseURL)
	fmt.Fprintf(cmd.OutOrStdout(), "  locales: %s (default %s)\n", strings.Join(cfg.I18n.Locales, ", "), cfg.I18n.DefaultLocale)
	fmt.Fprintf(cmd.OutOrStdout(), "  links:   %s=%s %s=%s\n",
		config.LinkKindHyperlink, cfg.ResolveLinkPolicy(config.LinkKindHyperlink),
		config.LinkKindDocReference, cfg.ResolveLinkPolicy(config.LinkKindDocReference))
	if footer := cfg.ThemeConfig.Footer.RenderCopyright(time.Now()); footer != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  footer:  %s\n", footer)
	}

	return nil
}
