package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docsite.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docsite",
		Short: "Validate and link-check documentation site configurations",
		Long: `docsite loads the configuration of a documentation site (docsite.yaml,
docsite.json or docsite.toml), validates it, and checks the site's docs tree
and built pages for broken links.

Broken hyperlinks and broken markdown links are ignored, reported as warnings
or fail the build according to onBrokenLinks and onBrokenMarkdownLinks.
Every build is recorded so that consecutive builds can be compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write log lines as JSON")

	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewBuildCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
