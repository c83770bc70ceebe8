// Package schema bootstraps the statistics tables and owns the sync metadata row.
//
// Bootstrap runs the dialect's create-if-absent statements, then inserts the
// metadata singleton at the Unix epoch when it is missing, so that the first
// pass treats every record as changed.
package schema
