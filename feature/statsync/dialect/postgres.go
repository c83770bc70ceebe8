package dialect

import (
	"fmt"
	"strings"

	"player-statistics/core/database"
	"player-statistics/feature/statsync/models"
)

// Postgres targets PostgreSQL 12+.
type Postgres struct{}

func (Postgres) Name() string { return database.DriverPostgres }

func (Postgres) Quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (Postgres) UUIDColumnType() string { return "UUID" }

func (Postgres) TimestampColumnType() string { return "TIMESTAMP WITH TIME ZONE" }

func (d Postgres) SchemaStatements() []string {
	return buildSchema(d.Quote, columnTypes{
		identityPK: "SERIAL PRIMARY KEY",
		playerRef:  "INTEGER",
		uuid:       d.UUIDColumnType(),
		timestamp:  d.TimestampColumnType(),
		blob:       "BYTEA",
	})
}

func (d Postgres) UpsertAmounts(category models.Category, rows []models.StatRow) (string, []any) {
	stmt, args := insertRows(d.Quote, category, rows)
	return stmt + " ON CONFLICT (player_id, stat_name) DO UPDATE SET amount = excluded.amount", args
}

func (d Postgres) ResetRanks(category models.Category) string {
	return resetRanks(d.Quote, category)
}

func (d Postgres) AssignRanks(category models.Category) RankPlan {
	return RankPlan{
		Apply: fmt.Sprintf(
			"UPDATE %s AS t SET position = r.row_num FROM (%s) AS r "+
				"WHERE t.player_id = r.player_id AND t.stat_name = r.stat_name AND r.row_num <= %d",
			d.Quote(category.Table()), rankedSelect(d.Quote, category), models.MaxRank),
	}
}

// ClearHallOfFame truncates; TRUNCATE is transactional in PostgreSQL.
func (d Postgres) ClearHallOfFame() string {
	return "TRUNCATE TABLE " + d.Quote(models.TableHallOfFame)
}

func (Postgres) ConcurrentRanking() bool { return true }
