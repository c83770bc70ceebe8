// Package snapshot serves the synced statistics read-only.
//
// It streams a consistent copy of the SQLite database, answers hall of fame
// and per-category ranking queries with optional fuzzy filtering, and
// publishes the database to object storage after every committed pass.
package snapshot
