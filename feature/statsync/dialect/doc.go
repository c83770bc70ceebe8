// Package dialect maps the sync engine's abstract database operations onto
// SQL text for SQLite, MySQL, MariaDB and PostgreSQL.
//
// # Operations
//
//   - UpsertAmounts: batched insert, overwriting amount on (player_id, stat_name) conflict.
//   - ResetRanks / AssignRanks: clear and recompute the top-5 positions of a category.
//   - ClearHallOfFame: empty the hall of fame table.
//   - SchemaStatements: create-if-absent DDL for every table.
//
// # Ranking
//
// Positions come from ROW_NUMBER() partitioned by stat_name and ordered by
// amount descending, then player_id ascending, restricted to amount > 0.
// SQLite updates through a CTE and correlated subquery, MySQL and MariaDB
// join a per-connection temporary table that is always dropped, and
// PostgreSQL uses UPDATE ... FROM.
//
// All values are bound as parameters. Table names are taken from
// models.Categories only.
package dialect
