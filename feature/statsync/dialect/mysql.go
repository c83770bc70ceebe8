package dialect

import (
	"fmt"
	"strings"

	"player-statistics/core/database"
	"player-statistics/feature/statsync/models"
)

// MySQL targets MySQL 8 or, with MariaDB set, MariaDB 10.3+.
type MySQL struct {
	MariaDB bool
}

func (d MySQL) Name() string {
	if d.MariaDB {
		return database.DriverMariaDB
	}
	return database.DriverMySQL
}

func (MySQL) Quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (MySQL) UUIDColumnType() string { return "VARCHAR(36)" }

// TimestampColumnType keeps microseconds; the modification time comparison is strict.
func (MySQL) TimestampColumnType() string { return "DATETIME(6)" }

func (d MySQL) SchemaStatements() []string {
	return buildSchema(d.Quote, columnTypes{
		identityPK:    "INT NOT NULL AUTO_INCREMENT PRIMARY KEY",
		playerRef:     "INT",
		uuid:          d.UUIDColumnType(),
		timestamp:     d.TimestampColumnType(),
		blob:          "MEDIUMBLOB",
		inlineIndexes: true,
		tableOptions:  " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	})
}

// UpsertAmounts uses a row alias on MySQL; MariaDB only understands VALUES().
func (d MySQL) UpsertAmounts(category models.Category, rows []models.StatRow) (string, []any) {
	stmt, args := insertRows(d.Quote, category, rows)
	if d.MariaDB {
		return stmt + " ON DUPLICATE KEY UPDATE amount = VALUES(amount)", args
	}
	return stmt + " AS new ON DUPLICATE KEY UPDATE amount = new.amount", args
}

func (d MySQL) ResetRanks(category models.Category) string {
	return resetRanks(d.Quote, category)
}

// AssignRanks materializes the ranking into a temporary table and joins it.
// Temporary tables are per connection, so the plan must run on a pinned one.
func (d MySQL) AssignRanks(category models.Category) RankPlan {
	tmp := d.Quote("ranked_" + category.Table())
	drop := "DROP TEMPORARY TABLE IF EXISTS " + tmp
	return RankPlan{
		Setup: []string{
			drop,
			fmt.Sprintf("CREATE TEMPORARY TABLE %s AS %s", tmp, rankedSelect(d.Quote, category)),
		},
		Apply: fmt.Sprintf(
			"UPDATE %s AS t JOIN %s AS r ON t.player_id = r.player_id AND t.stat_name = r.stat_name "+
				"SET t.position = r.row_num WHERE r.row_num <= %d",
			d.Quote(category.Table()), tmp, models.MaxRank),
		Cleanup: []string{drop},
	}
}

// ClearHallOfFame deletes rather than truncates: TRUNCATE commits implicitly.
func (d MySQL) ClearHallOfFame() string {
	return "DELETE FROM " + d.Quote(models.TableHallOfFame)
}

func (MySQL) ConcurrentRanking() bool { return true }
