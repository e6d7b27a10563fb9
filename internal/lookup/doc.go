// Package lookup persists the aggregate lookup tables produced from the
// training log and serves them back as join indexes.
//
// Four backends implement Store: CSV files in a directory (the default),
// SQLite via modernc.org/sqlite, PostgreSQL via pgx, and an in-memory store
// for tests and single-process runs. Lookups are written once per training
// run; saving replaces a table wholesale and loading never mutates it.
package lookup
