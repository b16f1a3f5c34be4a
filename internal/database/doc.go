// Package database provides SQLite-based storage for the build history.
//
// Each build run is stored as one row of the builds table: the site title
// and base URL, a BLAKE2b digest of the configuration source, the headline
// counts, the outcome and the complete report as JSON. The history command
// lists these rows and compares the two most recent reports of a site.
//
// The database is a single file opened through modernc.org/sqlite, so no
// cgo toolchain is needed.
package database
