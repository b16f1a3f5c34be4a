package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/docsite/internal/integrity"
)

// Default run option values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "docsite"

	// DefaultOutDir is where the external generator writes the built site.
	// It is only read, for hyperlink checks of the rendered pages.
	DefaultOutDir = "build"

	// DefaultFetchTimeout bounds each stylesheet download during integrity
	// verification.
	DefaultFetchTimeout = integrity.DefaultTimeout

	// DefaultFetchConcurrency is how many stylesheets are verified in parallel.
	// Sites rarely declare more than a handful, so this mostly bounds bursts
	// against a single CDN.
	DefaultFetchConcurrency = 4

	// DefaultFetchMaxBytes is how much of a downloaded stylesheet is read.
	DefaultFetchMaxBytes = integrity.DefaultMaxBodySize

	// DefaultHistoryLimit is how many past builds the history command lists.
	DefaultHistoryLimit = 20
)

// Options holds the options of one build invocation. They come from CLI
// flags, not from the site configuration file, and are passed explicitly to
// the build routine together with the SiteConfig.
type Options struct {
	// ConfigFilePath is the path to the site configuration file.
	// If empty, FindConfigFile searches the working directory.
	ConfigFilePath string

	// SiteDir is the directory relative to which the docs path of the
	// configuration is resolved. Defaults to the config file's directory.
	SiteDir string

	// DocsDir overrides the docs directory from the classic preset.
	DocsDir string

	// OutDir is the built site directory scanned for broken hyperlinks.
	// Missing directories are skipped.
	OutDir string

	// SkipPages are URL path globs of built pages that are not scanned.
	SkipPages []string

	// MaxPages limits how many built pages are scanned. 0 means no limit.
	MaxPages int

	// Verbose enables debug logging.
	Verbose bool

	// VerifyIntegrity downloads every stylesheet with integrity metadata and
	// compares its digest.
	VerifyIntegrity bool

	// FetchTimeout bounds a single stylesheet download.
	FetchTimeout time.Duration

	// FetchConcurrency is the number of parallel stylesheet downloads.
	FetchConcurrency int

	// FetchMaxBytes limits how much of a stylesheet is downloaded. Larger
	// files are truncated and so fail verification.
	FetchMaxBytes int64

	// JSONReport and MarkdownReport select the report format; the default is
	// the human-readable text report. They are mutually exclusive.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output file path for the report; stdout when empty.
	ReportFile string

	// SaveHistory records the build in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory.
	DBDir string

	// MetricsFile, when set, receives build metrics in the Prometheus text format.
	MetricsFile string
}

// NewOptions creates Options with default values.
func NewOptions() *Options {
	return &Options{
		OutDir:           DefaultOutDir,
		FetchTimeout:     DefaultFetchTimeout,
		FetchConcurrency: DefaultFetchConcurrency,
		FetchMaxBytes:    DefaultFetchMaxBytes,
		SaveHistory:      true,
		DBDir:            XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for docsite.
// On Linux: ~/.local/share/docsite
// On macOS: ~/Library/Application Support/docsite
// On Windows: %LOCALAPPDATA%\docsite
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the run options and returns the first problem found.
func (o *Options) Validate() error {
	if o.JSONReport && o.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if o.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if o.VerifyIntegrity {
		if o.FetchTimeout <= 0 {
			return ErrInvalidTimeout
		}
		if o.FetchConcurrency <= 0 {
			return ErrInvalidConcurrency
		}
		if o.FetchMaxBytes <= 0 {
			return ErrInvalidFetchSize
		}
	}
	return nil
}

// ResolveDocsDir returns the docs directory for cfg: the explicit override,
// or the classic preset's docs path relative to SiteDir.
func (o *Options) ResolveDocsDir(cfg *SiteConfig) (string, error) {
	if o.DocsDir != "" {
		return o.DocsDir, nil
	}
	path := cfg.DocsOptions().Path
	if path == "" {
		return "", ErrNoDocsDir
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(o.SiteDir, path), nil
}
