// Package rowstore provides the tabular backends leads are written to.
//
// A Table is an ordered list of rows with four string columns
// (timestamp, name, email, favoriteColor). Each row carries an opaque Ref that
// UpdateRow uses to overwrite it in place. Implementations live here for
// in-memory use (tests and ephemeral deployments) and SQL databases
// (SQLite through modernc.org/sqlite, Postgres through lib/pq), both accessed
// with sqlx. The Google Sheets backend lives in internal/services/sheets.
//
// SQL schemas are applied from embedded per-dialect migrations when a store is
// opened, so a fresh database file is ready for use immediately.
package rowstore
