package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/database"
	"github.com/nao1215/docsite/internal/model"
	"github.com/nao1215/docsite/internal/report"
)

// errNoSite is returned when the history command cannot tell which site to use.
var errNoSite = errors.New("cannot determine site")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded builds and compare the latest two",
		Long: `History reads the builds recorded by 'docsite build' and compares the two
most recent builds of a site:

- broken links that appeared since the previous build
- broken links that were fixed
- whether the site got better or worse

The site is the title of the configuration in the current directory, or
the one given with --site. With --list, the recorded builds are listed
instead. With --show, the full report of one recorded build is printed.

Examples:
  # Compare the latest two builds of the site in the current directory
  docsite history

  # List the last 50 builds
  docsite history --list --limit 50

  # Compare builds of a named site as Markdown
  docsite history --site "AI on EKS" --markdown

  # Print the report of build 12
  docsite history --show 12`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List recorded builds instead of comparing")
	cmd.Flags().Int64("show", 0,
		"Print the full report of the build with this ID")
	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of builds to list")
	cmd.Flags().StringP("site", "s", "",
		"Site title (default: title of the configuration file)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path used to determine the site")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	show, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return err
	}
	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	// Resolve the site before opening the database
	if site == "" {
		site = siteFromConfig(configFlag)
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if show > 0 {
		return showBuild(ctx, out, db, show, reportFormat(jsonOutput, markdownOutput))
	}
	if list {
		return listBuilds(ctx, out, db, site, limit, jsonOutput)
	}

	if site == "" {
		if site, err = onlySite(ctx, db); err != nil {
			return err
		}
	}
	return compareLatest(ctx, out, db, site, reportFormat(jsonOutput, markdownOutput))
}

// siteFromConfig returns the title of the site configuration, or "" if
// there is no loadable configuration.
func siteFromConfig(configFlag string) string {
	loaded, err := loadSiteConfig(configFlag)
	if err != nil {
		return ""
	}
	return loaded.Config.Title
}

// onlySite returns the single site with recorded builds.
func onlySite(ctx context.Context, db *database.BuildDB) (string, error) {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return "", err
	}
	switch len(sites) {
	case 0:
		return "", nil
	case 1:
		return sites[0], nil
	default:
		return "", fmt.Errorf("%w: builds of %d sites are recorded (%s); use --site",
			errNoSite, len(sites), strings.Join(sites, ", "))
	}
}

// listBuilds prints the recorded builds of site, or of every site when
// site is empty.
func listBuilds(ctx context.Context, out io.Writer, db *database.BuildDB, site string, limit int, jsonOutput bool) error {
	records, err := db.ListBuilds(ctx, site, limit)
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}

	if jsonOutput {
		if records == nil {
			records = []database.BuildRecord{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No builds recorded.")
		fmt.Fprintln(out, "\nUse 'docsite build' to check a site and record the result.")
		return nil
	}

	if site != "" {
		fmt.Fprintf(out, "Build history for %s (%d builds):\n\n", site, len(records))
	} else {
		fmt.Fprintf(out, "Build history (%d builds):\n\n", len(records))
	}
	fmt.Fprintf(out, "  %-6s  %-20s  %-20s  %-8s  %5s  %6s  %4s  %4s\n",
		"ID", "Date", "Site", "Outcome", "Docs", "Broken", "Fail", "Warn")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 88))

	for _, rec := range records {
		fmt.Fprintf(out, "  %-6d  %-20s  %-20s  %-8s  %5d  %6d  %4d  %4d\n",
			rec.ID,
			rec.StartedAt.Local().Format(time.DateTime),
			truncate(rec.Site, 20),
			rec.Outcome,
			rec.Docs,
			rec.BrokenLinks,
			rec.Failures,
			rec.Warnings,
		)
	}

	return nil
}

// showBuild writes the stored report of the build with the given ID.
func showBuild(ctx context.Context, out io.Writer, db *database.BuildDB, id int64, format string) error {
	r, err := db.GetBuildReport(ctx, id)
	if err != nil {
		return err
	}
	_, err = report.New(format, out, getVersion()).Write(r)
	return err
}

// compareLatest writes the comparison of the two most recent builds of site.
func compareLatest(ctx context.Context, out io.Writer, db *database.BuildDB, site, format string) error {
	if site == "" {
		fmt.Fprintln(out, "No builds recorded.")
		fmt.Fprintln(out, "\nUse 'docsite build' to check a site and record the result.")
		return nil
	}

	reports, err := db.LatestBuilds(ctx, site, 2)
	if err != nil {
		return fmt.Errorf("failed to get build history: %w", err)
	}
	if len(reports) < 2 {
		fmt.Fprintf(out, "At least two builds of %s are needed for a comparison (found %d).\n", site, len(reports))
		return nil
	}

	c := model.Compare(reports[1], reports[0])
	_, err = report.New(format, out, getVersion()).WriteComparison(c)
	return err
}

// truncate shortens s to maxLen characters for table output.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
