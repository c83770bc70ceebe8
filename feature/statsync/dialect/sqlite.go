package dialect

import (
	"fmt"
	"strings"

	"player-statistics/core/database"
	"player-statistics/feature/statsync/models"
)

// SQLite targets an embedded database file.
type SQLite struct{}

func (SQLite) Name() string { return database.DriverSQLite }

func (SQLite) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (SQLite) UUIDColumnType() string { return "VARCHAR(36)" }

// TimestampColumnType is DATETIME so the driver parses values back into time.Time.
func (SQLite) TimestampColumnType() string { return "DATETIME" }

func (d SQLite) SchemaStatements() []string {
	return buildSchema(d.Quote, columnTypes{
		identityPK: "INTEGER PRIMARY KEY AUTOINCREMENT",
		playerRef:  "INTEGER",
		uuid:       d.UUIDColumnType(),
		timestamp:  d.TimestampColumnType(),
		blob:       "BLOB",
	})
}

func (d SQLite) UpsertAmounts(category models.Category, rows []models.StatRow) (string, []any) {
	stmt, args := insertRows(d.Quote, category, rows)
	return stmt + " ON CONFLICT (player_id, stat_name) DO UPDATE SET amount = excluded.amount", args
}

func (d SQLite) ResetRanks(category models.Category) string {
	return resetRanks(d.Quote, category)
}

// AssignRanks updates through a correlated subquery over a CTE, since SQLite
// has no UPDATE ... JOIN.
func (d SQLite) AssignRanks(category models.Category) RankPlan {
	t := d.Quote(category.Table())
	return RankPlan{
		Apply: fmt.Sprintf(
			"WITH ranked AS (%s) "+
				"UPDATE %s SET position = (SELECT ranked.row_num FROM ranked WHERE ranked.player_id = %s.player_id AND ranked.stat_name = %s.stat_name) "+
				"WHERE EXISTS (SELECT 1 FROM ranked WHERE ranked.player_id = %s.player_id AND ranked.stat_name = %s.stat_name AND ranked.row_num <= %d)",
			rankedSelect(d.Quote, category), t, t, t, t, t, models.MaxRank),
	}
}

func (d SQLite) ClearHallOfFame() string {
	return "DELETE FROM " + d.Quote(models.TableHallOfFame)
}

// ConcurrentRanking is false: SQLite has a single writer.
func (SQLite) ConcurrentRanking() bool { return false }
