package dialect

import (
	"fmt"
	"strings"

	"player-statistics/core/database"
	"player-statistics/feature/statsync/models"
)

// RankPlan is the statement sequence assigning positions for one category.
// Setup and Apply run inside one transaction on a pinned connection.
// Cleanup runs afterwards on the same connection, whatever the outcome.
type RankPlan struct {
	Setup   []string
	Apply   string
	Cleanup []string
}

// Dialect translates the engine's abstract operations into SQL for one database.
// Identifiers only ever come from models.Categories and the fixed table names.
type Dialect interface {
	// Name is the driver name (sqlite, mysql, mariadb, postgres).
	Name() string
	// Quote quotes an identifier.
	Quote(identifier string) string
	UUIDColumnType() string
	TimestampColumnType() string
	// SchemaStatements creates every table and index if absent.
	SchemaStatements() []string
	// UpsertAmounts inserts rows into the category table, overwriting amount on conflict.
	UpsertAmounts(category models.Category, rows []models.StatRow) (string, []any)
	// ResetRanks clears every position of the category.
	ResetRanks(category models.Category) string
	// AssignRanks writes positions 1..5 per stat key, ordered by amount descending.
	AssignRanks(category models.Category) RankPlan
	// ClearHallOfFame empties the hall of fame table inside a transaction.
	ClearHallOfFame() string
	// ConcurrentRanking reports whether categories may be ranked in parallel.
	ConcurrentRanking() bool
}

// For returns the dialect for a configured driver.
func For(driver string) (Dialect, error) {
	switch driver {
	case database.DriverSQLite:
		return SQLite{}, nil
	case database.DriverMySQL:
		return MySQL{}, nil
	case database.DriverMariaDB:
		return MySQL{MariaDB: true}, nil
	case database.DriverPostgres:
		return Postgres{}, nil
	}
	return nil, fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, driver)
}

// columnTypes is the per-dialect vocabulary used by buildSchema.
type columnTypes struct {
	identityPK string
	playerRef  string
	uuid       string
	timestamp  string
	blob       string
	// inlineIndexes puts secondary indexes inside CREATE TABLE, for
	// dialects without CREATE INDEX IF NOT EXISTS.
	inlineIndexes bool
	tableOptions  string
}

type index struct {
	name    string
	columns string
}

func buildSchema(quote func(string) string, ct columnTypes) []string {
	var stmts []string

	table := func(name, body string, indexes ...index) {
		var sb strings.Builder
		sb.WriteString("CREATE TABLE IF NOT EXISTS ")
		sb.WriteString(quote(name))
		sb.WriteString(" (")
		sb.WriteString(body)
		if ct.inlineIndexes {
			for _, idx := range indexes {
				fmt.Fprintf(&sb, ", INDEX %s (%s)", quote(idx.name), idx.columns)
			}
		}
		sb.WriteString(")")
		sb.WriteString(ct.tableOptions)
		stmts = append(stmts, sb.String())

		if !ct.inlineIndexes {
			for _, idx := range indexes {
				stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
					quote(idx.name), quote(name), idx.columns))
			}
		}
	}

	identity := quote(models.TableIdentity)

	table(models.TableIdentity, fmt.Sprintf(
		"id %s, player_uuid %s NOT NULL UNIQUE, player_nick VARCHAR(%d), player_last_online %s",
		ct.identityPK, ct.uuid, models.MaxNickLength, ct.timestamp))

	table(models.TableMetadata, fmt.Sprintf(
		"id INTEGER NOT NULL PRIMARY KEY, last_update %s NOT NULL, server_name VARCHAR(255), server_desc TEXT, server_url VARCHAR(255), server_icon %s",
		ct.timestamp, ct.blob))

	table(models.TableHallOfFame, fmt.Sprintf(
		"player_id %s NOT NULL PRIMARY KEY, first_place INTEGER NOT NULL DEFAULT 0, second_place INTEGER NOT NULL DEFAULT 0, "+
			"third_place INTEGER NOT NULL DEFAULT 0, fourth_place INTEGER NOT NULL DEFAULT 0, fifth_place INTEGER NOT NULL DEFAULT 0, "+
			"score BIGINT NOT NULL DEFAULT 0, FOREIGN KEY (player_id) REFERENCES %s (id) ON DELETE CASCADE",
		ct.playerRef, identity),
		index{name: "idx_hall_of_fame_score", columns: "score"})

	for _, c := range models.Categories {
		t := c.Table()
		table(t, fmt.Sprintf(
			"player_id %s NOT NULL, position INTEGER, stat_name VARCHAR(256) NOT NULL, amount BIGINT NOT NULL DEFAULT 0, "+
				"PRIMARY KEY (player_id, stat_name), FOREIGN KEY (player_id) REFERENCES %s (id) ON DELETE CASCADE",
			ct.playerRef, identity),
			index{name: "idx_" + t + "_position", columns: "position"},
			index{name: "idx_" + t + "_stat_amount", columns: "stat_name, amount"})
	}

	return stmts
}

// insertRows renders the shared INSERT ... VALUES prefix of an upsert.
func insertRows(quote func(string) string, category models.Category, rows []models.StatRow) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(rows)*3)

	sb.WriteString("INSERT INTO ")
	sb.WriteString(quote(category.Table()))
	sb.WriteString(" (player_id, stat_name, amount) VALUES ")
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, row.PlayerID, row.StatName, row.Amount)
	}
	return sb.String(), args
}

// rankedSelect numbers the positive amounts of each stat key.
// Ties are broken by the lower player id.
func rankedSelect(quote func(string) string, category models.Category) string {
	return fmt.Sprintf(
		"SELECT player_id, stat_name, ROW_NUMBER() OVER (PARTITION BY stat_name ORDER BY amount DESC, player_id ASC) AS row_num "+
			"FROM %s WHERE amount > 0", quote(category.Table()))
}

func resetRanks(quote func(string) string, category models.Category) string {
	return fmt.Sprintf("UPDATE %s SET position = NULL WHERE position IS NOT NULL", quote(category.Table()))
}
