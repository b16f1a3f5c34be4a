package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/database"
	"github.com/nao1215/docsite/internal/log"
	"github.com/nao1215/docsite/internal/metrics"
	"github.com/nao1215/docsite/internal/model"
	"github.com/nao1215/docsite/internal/pipeline"
	"github.com/nao1215/docsite/internal/report"
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Check the site for broken links and enforce the link policy",
		Long: `Build indexes the docs directory and checks every internal reference:

- navbar items that point at documents
- relative links between markdown files (onBrokenMarkdownLinks)
- links to site routes in markdown and in the built pages (onBrokenLinks)
- with --verify-integrity, the integrity hashes of stylesheets

Broken references under policy "fail" make the command exit non-zero,
"warn" logs them and continues, "ignore" drops them. The built pages are
read from --out when that directory exists; run the site generator first to
include them.

Examples:
  # Check the site in the current directory
  docsite build

  # Check a site in another directory and write a Markdown report
  docsite build -c website/docsite.yaml --markdown -o report.md

  # Also download stylesheets and verify their integrity hashes
  docsite build --verify-integrity

  # Export metrics for the node_exporter textfile collector
  docsite build --metrics-file /var/lib/node_exporter/docsite.prom`,
		Args: cobra.NoArgs,
		RunE: runBuildCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: docsite.yaml in current directory)")
	cmd.Flags().String("docs", "",
		"Docs directory (default: the classic preset's docs path)")
	cmd.Flags().String("out", "",
		"Built site directory to scan for broken links (default: build next to the config file)")
	cmd.Flags().StringSlice("skip-pages", nil,
		"URL path globs of built pages not to scan (e.g. \"/ai-on-eks/search*\")")
	cmd.Flags().Int("max-pages", 0,
		"Maximum number of built pages to scan (0 for no limit)")

	// Integrity flags
	cmd.Flags().Bool("verify-integrity", false,
		"Download stylesheets with integrity metadata and verify their hashes")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for each stylesheet download")
	cmd.Flags().Int("concurrency", config.DefaultFetchConcurrency,
		"Number of parallel stylesheet downloads")
	cmd.Flags().Int64("max-stylesheet-size", config.DefaultFetchMaxBytes,
		"Maximum number of bytes read from a downloaded stylesheet")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History and metrics flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this build in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().String("metrics-file", "",
		"Write build metrics in the Prometheus text format to this file")

	return cmd
}

// runBuildCmd executes the build command.
func runBuildCmd(cmd *cobra.Command, _ []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	logger := newLogger(cmd)

	loaded, err := loadSiteConfig(opts.ConfigFilePath)
	if loaded == nil {
		return err
	}
	if err != nil {
		return printConfigErrors(cmd.ErrOrStderr(), loaded.Path, err)
	}
	opts.ConfigFilePath = loaded.Path

	resolveSiteDirs(opts, loaded.Path)
	docsDir, err := opts.ResolveDocsDir(loaded.Config)
	if err != nil {
		return err
	}

	// SIGINT and SIGTERM cancel the build; the partial report is still written.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting build",
		"config", loaded.Path,
		"docs", docsDir,
		"out", opts.OutDir,
		"verifyIntegrity", opts.VerifyIntegrity,
	)

	b := pipeline.NewBuild(loaded.Config, opts, docsDir)
	buildErr := pipeline.DefaultPipeline(opts, logger).Execute(ctx, b)

	var reportErr error
	if err := outputReport(cmd.OutOrStdout(), opts, b.Report); err != nil {
		logger.Error("report failed", "error", err)
		if opts.ReportFile != "" {
			reportErr = fmt.Errorf("failed to write report: %w", err)
		}
	}

	// The build context may be cancelled by now; recording still happens.
	recordCtx := context.WithoutCancel(ctx)
	if opts.SaveHistory {
		if err := saveBuild(recordCtx, opts.DBDir, b.Report, database.ConfigDigest(loaded.Source), logger); err != nil {
			logger.Error("failed to record build", "error", err)
		}
	}
	if opts.MetricsFile != "" {
		if err := writeMetrics(opts.MetricsFile, b.Report); err != nil {
			logger.Error("failed to write metrics", "file", opts.MetricsFile, "error", err)
		}
	}

	if buildErr != nil {
		buildErr = fmt.Errorf("build failed: %w", buildErr)
	}
	return errors.Join(buildErr, reportErr)
}

// buildOptions creates Options from cobra command flags.
func buildOptions(cmd *cobra.Command) (*config.Options, error) {
	opts := config.NewOptions()
	opts.Verbose = getVerboseFlag(cmd)

	var err error

	if opts.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if opts.DocsDir, err = cmd.Flags().GetString("docs"); err != nil {
		return nil, err
	}
	if opts.OutDir, err = cmd.Flags().GetString("out"); err != nil {
		return nil, err
	}
	if opts.SkipPages, err = cmd.Flags().GetStringSlice("skip-pages"); err != nil {
		return nil, err
	}
	if opts.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
		return nil, err
	}
	if opts.VerifyIntegrity, err = cmd.Flags().GetBool("verify-integrity"); err != nil {
		return nil, err
	}
	if opts.FetchTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if opts.FetchConcurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, err
	}
	if opts.FetchMaxBytes, err = cmd.Flags().GetInt64("max-stylesheet-size"); err != nil {
		return nil, err
	}
	if opts.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if opts.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	opts.SaveHistory = !noHistory

	if opts.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.MetricsFile, err = cmd.Flags().GetString("metrics-file"); err != nil {
		return nil, err
	}

	return opts, nil
}

// resolveSiteDirs anchors the site and output directories at the directory
// of the configuration file unless they were given explicitly.
func resolveSiteDirs(opts *config.Options, configPath string) {
	if opts.SiteDir == "" {
		opts.SiteDir = filepath.Dir(configPath)
	}
	if opts.OutDir == "" {
		opts.OutDir = filepath.Join(opts.SiteDir, config.DefaultOutDir)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the command's logger. Warnings are always shown; -v
// adds debug output. Secrets in attributes are masked.
func newLogger(cmd *cobra.Command) *slog.Logger {
	jsonLogs, err := cmd.Root().PersistentFlags().GetBool("log-json")
	if err == nil && jsonLogs {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
}

// reportFormat maps the format flags to a report.New format name.
func reportFormat(jsonReport, markdownReport bool) string {
	switch {
	case jsonReport:
		return report.FormatJSON
	case markdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// outputReport writes the build report in the requested format to the
// report file, or to stdout when none is set.
func outputReport(stdout io.Writer, opts *config.Options, r *model.BuildReport) error {
	output := stdout
	if opts.ReportFile != "" {
		f, err := createReportFile(opts.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	_, err := report.New(reportFormat(opts.JSONReport, opts.MarkdownReport), output, getVersion()).Write(r)
	return err
}

// createReportFile creates or truncates path with owner-only permissions,
// creating parent directories as needed.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// saveBuild records the report in the history database.
func saveBuild(ctx context.Context, dbDir string, r *model.BuildReport, digest string, logger *slog.Logger) error {
	if dbDir == "" {
		return errors.New("no history database directory")
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	id, err := db.SaveBuild(ctx, r, digest)
	if err != nil {
		return err
	}

	logger.Info("build recorded", "id", id, "db", db.Path())
	return nil
}

// writeMetrics exports the report as Prometheus metrics to path.
func writeMetrics(path string, r *model.BuildReport) error {
	m := metrics.New(getVersion())
	m.Observe(r)
	return m.WriteFile(path)
}
