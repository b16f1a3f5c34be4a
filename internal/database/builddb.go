package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/docsite/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "docsite.db"

// ErrBuildNotFound is returned when a build ID has no record.
var ErrBuildNotFound = errors.New("build not found")

// startedAtLayout keeps a fixed width so that timestamps sort as text.
const startedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BuildDB provides SQLite-based storage for the history of build runs.
// Every build is one row carrying its headline counts and the full report
// as JSON.
type BuildDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures BuildDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a BuildDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*BuildDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	bdb := &BuildDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := bdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return bdb, nil
}

// Path returns the database file path.
func (bdb *BuildDB) Path() string {
	return bdb.dbPath
}

// Close closes the database connection.
func (bdb *BuildDB) Close() error {
	return bdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (bdb *BuildDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		base_url TEXT NOT NULL,
		config_digest TEXT,
		started_at TEXT NOT NULL,
		duration_ms INTEGER DEFAULT 0,
		docs INTEGER DEFAULT 0,
		links_checked INTEGER DEFAULT 0,
		broken_links INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0,
		warnings INTEGER DEFAULT 0,
		ignored INTEGER DEFAULT 0,
		outcome TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_builds_site ON builds(site);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`

	_, err := bdb.db.ExecContext(context.Background(), schema)
	return err
}

// ConfigDigest returns the hex BLAKE2b-256 digest of a configuration source.
// Builds with equal digests ran against the same configuration.
func ConfigDigest(source []byte) string {
	sum := blake2b.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// BuildRecord is the summary row of one stored build.
type BuildRecord struct {
	ID           int64         `json:"id"`
	Site         string        `json:"site"`
	BaseURL      string        `json:"base_url"`
	ConfigDigest string        `json:"config_digest,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Docs         int           `json:"docs"`
	LinksChecked int           `json:"links_checked"`
	BrokenLinks  int           `json:"broken_links"`
	Failures     int           `json:"failures"`
	Warnings     int           `json:"warnings"`
	Ignored      int           `json:"ignored"`
	Outcome      string        `json:"outcome"`
}

// SaveBuild stores a finished build report and returns its ID.
// digest may be empty when the configuration source is unknown.
func (bdb *BuildDB) SaveBuild(ctx context.Context, report *model.BuildReport, digest string) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO builds (site, base_url, config_digest, started_at, duration_ms, docs,
		links_checked, broken_links, failures, warnings, ignored, outcome, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := bdb.db.ExecContext(ctx, query,
		report.Site,
		report.BaseURL,
		digest,
		report.StartedAt.UTC().Format(startedAtLayout),
		report.Duration().Milliseconds(),
		report.Docs,
		report.LinksChecked,
		len(report.BrokenLinks),
		len(report.Failures()),
		len(report.Warnings()),
		report.Ignored,
		report.Outcome(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save build: %w", err)
	}

	return result.LastInsertId()
}

// ListBuilds returns the most recent builds, newest first. An empty site
// lists builds of every site; a limit of 0 or less returns all rows.
func (bdb *BuildDB) ListBuilds(ctx context.Context, site string, limit int) ([]BuildRecord, error) {
	query := `
	SELECT id, site, base_url, config_digest, started_at, duration_ms, docs,
		links_checked, broken_links, failures, warnings, ignored, outcome
	FROM builds
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if site != "" {
		query += " AND site = ?"
		args = append(args, site)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := bdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var records []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var digest sql.NullString
		var startedAt string
		var durationMS int64

		if err := rows.Scan(
			&rec.ID,
			&rec.Site,
			&rec.BaseURL,
			&digest,
			&startedAt,
			&durationMS,
			&rec.Docs,
			&rec.LinksChecked,
			&rec.BrokenLinks,
			&rec.Failures,
			&rec.Warnings,
			&rec.Ignored,
			&rec.Outcome,
		); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}

		rec.ConfigDigest = digest.String
		rec.StartedAt = parseTimestamp(startedAt)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetBuildReport retrieves the full report of a build by its ID.
func (bdb *BuildDB) GetBuildReport(ctx context.Context, id int64) (*model.BuildReport, error) {
	var reportJSON string
	err := bdb.db.QueryRowContext(ctx, "SELECT report_json FROM builds WHERE id = ?", id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %d: %w", id, ErrBuildNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build report: %w", err)
	}

	var report model.BuildReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// LatestBuilds returns the full reports of the n most recent builds of
// site, newest first. Malformed rows are skipped.
func (bdb *BuildDB) LatestBuilds(ctx context.Context, site string, n int) ([]*model.BuildReport, error) {
	query := `
	SELECT report_json FROM builds
	WHERE site = ?
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`

	rows, err := bdb.db.QueryContext(ctx, query, site, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest builds: %w", err)
	}
	defer rows.Close()

	var reports []*model.BuildReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.BuildReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ListSites returns the distinct site titles with recorded builds.
func (bdb *BuildDB) ListSites(ctx context.Context) ([]string, error) {
	rows, err := bdb.db.QueryContext(ctx, "SELECT DISTINCT site FROM builds ORDER BY site")
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// timestampFormats contains the timestamp formats the builds table may hold.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	startedAtLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
