package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/docsite/internal/config"
)

//go:embed templates/docsite.yaml
var configTemplate embed.FS

// templatePath is the path of the configuration template inside configTemplate.
const templatePath = "templates/docsite.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter site configuration file",
		Long: `Init writes a commented docsite.yaml to the current directory.

The generated file includes:
- Site identity (title, url, baseUrl)
- The broken link policies with their defaults
- The classic preset with a docs directory
- A navbar, footer and syntax highlighting theme

Examples:
  # Create docsite.yaml in current directory
  docsite init

  # Create config file at a specific path
  docsite init -o website/docsite.yaml

  # Force overwrite existing file
  docsite init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFiles[0],
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// The template is YAML.
	if format, err := config.FormatFromPath(outputPath); err != nil || format != config.FormatYAML {
		return fmt.Errorf("output file must have a .yaml or .yml extension: %s", outputPath)
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to describe your site, then run:")
	fmt.Fprintln(out, "  docsite validate   check the configuration")
	fmt.Fprintln(out, "  docsite build      check the docs for broken links")

	return nil
}
