package main

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/docsite/internal/config"
)

const siteConfig = `title: AI on EKS
tagline: Tested patterns for AI workloads
url: https://awslabs.github.io
baseUrl: /ai-on-eks/
i18n:
  defaultLocale: en
  locales: [en]
`

// newSiteDir writes a site with siteConfig plus extra into a temporary
// directory and returns the configuration file path.
func newSiteDir(t *testing.T, extra string, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	all := map[string]string{"docsite.yaml": siteConfig + extra}
	for name, content := range files {
		all[name] = content
	}
	writeFiles(t, dir, all)
	return filepath.Join(dir, "docsite.yaml")
}

func TestValidateCmd(t *testing.T) {
	t.Parallel()

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()

		path := newSiteDir(t, "", nil)
		out, _, err := execute(t, "validate", "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{path + ": OK", "https://awslabs.github.io/ai-on-eks/", "hyperlink=fail", "doc-reference=warn"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("valid TOML configuration", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"docsite.toml": `title = "AI on EKS"
tagline = "Tested patterns"
url = "https://awslabs.github.io"
baseUrl = "/ai-on-eks/"

[i18n]
defaultLocale = "en"
locales = ["en"]
`})
		if _, _, err := execute(t, "validate", "-c", filepath.Join(dir, "docsite.toml")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("generated template", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "docsite.yaml")
		if _, _, err := execute(t, "init", "-o", path); err != nil {
			t.Fatalf("init failed: %v", err)
		}
		out, _, err := execute(t, "validate", "-c", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "footer:  Copyright " + strconv.Itoa(time.Now().Year())
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	})

	t.Run("lists every problem", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"docsite.yaml": strings.NewReplacer(
			"defaultLocale: en", "defaultLocale: fr",
			"baseUrl: /ai-on-eks/", "baseUrl: ai-on-eks",
		).Replace(siteConfig)})

		_, stderr, err := execute(t, "validate", "-c", filepath.Join(dir, "docsite.yaml"))
		if !errors.Is(err, errInvalidConfig) {
			t.Fatalf("expected errInvalidConfig, got %v", err)
		}
		if !strings.Contains(err.Error(), "2 problem(s)") {
			t.Errorf("expected two problems, got %v", err)
		}
		for _, want := range []string{"i18n.defaultLocale", "baseUrl"} {
			if !strings.Contains(stderr, want) {
				t.Errorf("expected stderr to name %q, got:\n%s", want, stderr)
			}
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, "validate", "-c", filepath.Join(t.TempDir(), "docsite.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"docusaurus.config.js": "module.exports = {}"})
		_, _, err := execute(t, "validate", "-c", filepath.Join(dir, "docusaurus.config.js"))
		if !errors.Is(err, config.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}
