package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/docsite/internal/config"
	"github.com/nao1215/docsite/internal/database"
	"github.com/nao1215/docsite/internal/pipeline"
	"github.com/nao1215/docsite/internal/report"
)

// cleanDocs is a docs tree without broken references.
var cleanDocs = map[string]string{
	"docs/intro.md":        "# Intro\n\nSee [setup](guides/setup.md) and [the guide](/docs/guides/setup).\n",
	"docs/guides/setup.md": "# Setup\n\n[back](../intro.md)\n",
}

func TestNewBuildCmd(t *testing.T) {
	t.Parallel()

	cmd := NewBuildCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "config", shorthand: "c", defValue: ""},
		{name: "json", shorthand: "j", defValue: "false"},
		{name: "markdown", shorthand: "m", defValue: "false"},
		{name: "output", shorthand: "o", defValue: ""},
		{name: "timeout", shorthand: "t", defValue: config.DefaultFetchTimeout.String()},
		{name: "verify-integrity", defValue: "false"},
		{name: "no-history", defValue: "false"},
		{name: "db-dir", defValue: config.XDGDataDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestRunBuildCmd(t *testing.T) {
	t.Parallel()

	t.Run("clean site passes", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", cleanDocs)
		out, stderr, err := execute(t, "build", "-c", path, "--no-history")
		if err != nil {
			t.Fatalf("unexpected error: %v\n%s", err, stderr)
		}
		for _, want := range []string{"DOCSITE BUILD REPORT", "Status:    PASSED", "Documents:      2"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if stderr != "" {
			t.Errorf("expected no log output, got:\n%s", stderr)
		}
	})

	t.Run("broken reference under fail policy", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "onBrokenMarkdownLinks: fail\n", map[string]string{
			"docs/intro.md": "[gone](./missing.md)\n",
		})
		out, _, err := execute(t, "build", "-c", path, "--no-history")

		var linkErr *pipeline.LinkIntegrityError
		if !errors.As(err, &linkErr) {
			t.Fatalf("expected LinkIntegrityError, got %v", err)
		}
		if len(linkErr.Links) != 1 || linkErr.Links[0].Source != "intro.md" {
			t.Errorf("unexpected broken links: %v", linkErr.Links)
		}
		// The report is written even though the build failed.
		if !strings.Contains(out, "Status:    FAILED") {
			t.Errorf("expected failed report, got:\n%s", out)
		}
	})

	t.Run("broken reference under warn policy", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", map[string]string{
			"docs/intro.md": "[gone](./missing.md)\n",
		})
		out, stderr, err := execute(t, "build", "-c", path, "--no-history")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stderr, "level=WARN") || !strings.Contains(stderr, "./missing.md") {
			t.Errorf("expected a warning for the broken link, got:\n%s", stderr)
		}
		if !strings.Contains(out, "Status:    PASSED") {
			t.Errorf("expected passed report, got:\n%s", out)
		}
	})

	t.Run("JSON log lines", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", map[string]string{
			"docs/intro.md": "[gone](./missing.md)\n",
		})
		_, stderr, err := execute(t, "--log-json", "build", "-c", path, "--no-history")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stderr, `"level":"WARN"`) || !strings.Contains(stderr, `"msg":"broken link"`) {
			t.Errorf("expected a JSON warning, got:\n%s", stderr)
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"docsite.yaml": strings.Replace(siteConfig, "defaultLocale: en", "defaultLocale: fr", 1),
		})
		_, stderr, err := execute(t, "build", "-c", filepath.Join(dir, "docsite.yaml"), "--no-history")
		if !errors.Is(err, errInvalidConfig) {
			t.Fatalf("expected errInvalidConfig, got %v", err)
		}
		if !strings.Contains(stderr, "i18n.defaultLocale") {
			t.Errorf("expected the problem on stderr, got:\n%s", stderr)
		}
	})

	t.Run("missing configuration", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, "build", "-c", filepath.Join(t.TempDir(), "docsite.yaml"), "--no-history")
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", cleanDocs)
		_, _, err := execute(t, "build", "-c", path, "--no-history", "--json", "--markdown")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("JSON report to file", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", cleanDocs)
		reportPath := filepath.Join(t.TempDir(), "reports", "build.json")
		out, _, err := execute(t, "build", "-c", path, "--no-history", "--json", "-o", reportPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "" {
			t.Errorf("expected nothing on stdout, got %q", out)
		}

		data, err := os.ReadFile(reportPath) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var got report.JSONReport
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if got.Outcome != "passed" || got.Summary.Docs != 2 {
			t.Errorf("unexpected report: outcome=%q summary=%+v", got.Outcome, got.Summary)
		}
	})

	t.Run("unwritable report file fails the command", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", cleanDocs)
		blocker := filepath.Join(t.TempDir(), "not-a-dir")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}

		_, _, err := execute(t, "build", "-c", path, "--no-history", "-o", filepath.Join(blocker, "build.txt"))
		if err == nil {
			t.Fatal("expected an error when the report cannot be written")
		}
		if !strings.Contains(err.Error(), "failed to write report") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("metrics file", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", cleanDocs)
		metricsPath := filepath.Join(t.TempDir(), "docsite.prom")
		if _, _, err := execute(t, "build", "-c", path, "--no-history", "--metrics-file", metricsPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(metricsPath) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read metrics: %v", err)
		}
		for _, want := range []string{"docsite_documents 2", "docsite_build_success 1"} {
			if !strings.Contains(string(data), want) {
				t.Errorf("expected metrics to contain %q, got:\n%s", want, data)
			}
		}
	})

	t.Run("records history", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", cleanDocs)
		dbDir := t.TempDir()
		if _, _, err := execute(t, "build", "-c", path, "--db-dir", dbDir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); err != nil {
			t.Errorf("expected history database: %v", err)
		}
	})

	t.Run("no-history leaves no database", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", cleanDocs)
		dbDir := filepath.Join(t.TempDir(), "db")
		if _, _, err := execute(t, "build", "-c", path, "--db-dir", dbDir, "--no-history"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(dbDir); !os.IsNotExist(err) {
			t.Errorf("expected no database directory, got %v", err)
		}
	})
}

func TestReportFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		json, markdown bool
		want           string
	}{
		{want: report.FormatText},
		{json: true, want: report.FormatJSON},
		{markdown: true, want: report.FormatMarkdown},
	}
	for _, tt := range tests {
		if got := reportFormat(tt.json, tt.markdown); got != tt.want {
			t.Errorf("reportFormat(%v, %v) = %q, want %q", tt.json, tt.markdown, got, tt.want)
		}
	}
}

func TestResolveSiteDirs(t *testing.T) {
	t.Parallel()

	t.Run("defaults to the config directory", func(t *testing.T) {
		t.Parallel()

		opts := &config.Options{}
		resolveSiteDirs(opts, filepath.Join("website", "docsite.yaml"))
		if opts.SiteDir != "website" {
			t.Errorf("expected site dir 'website', got %q", opts.SiteDir)
		}
		if opts.OutDir != filepath.Join("website", "build") {
			t.Errorf("expected out dir 'website/build', got %q", opts.OutDir)
		}
	})

	t.Run("keeps explicit directories", func(t *testing.T) {
		t.Parallel()

		opts := &config.Options{SiteDir: "site", OutDir: "public"}
		resolveSiteDirs(opts, filepath.Join("website", "docsite.yaml"))
		if opts.SiteDir != "site" || opts.OutDir != "public" {
			t.Errorf("unexpected dirs: %q %q", opts.SiteDir, opts.OutDir)
		}
	})
}
