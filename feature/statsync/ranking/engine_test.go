package ranking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"player-statistics/core/database"
	"player-statistics/core/workerpool"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/models"
	"player-statistics/feature/statsync/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type counter struct{ n atomic.Int64 }

func (c *counter) Advance() { c.n.Add(1) }

func setupTestDB(t *testing.T, players int) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Path: database.MemoryPath})
	require.NoError(t, err)
	require.NoError(t, schema.Bootstrap(context.Background(), db, dialect.SQLite{}))

	for i := 1; i <= players; i++ {
		p := models.PlayerIdentity{UUID: fmt.Sprintf("00000000-0000-4000-8000-%012d", i)}
		require.NoError(t, db.Create(&p).Error)
		require.Equal(t, int64(i), p.ID)
	}
	return db
}

func insertStats(t *testing.T, db *gorm.DB, category models.Category, stat string, amounts map[int64]int64) {
	t.Helper()
	for player, amount := range amounts {
		require.NoError(t, db.Table(category.Table()).Create(&models.StatRecord{
			PlayerID: player, StatName: stat, Amount: amount,
		}).Error)
	}
}

func positions(t *testing.T, db *gorm.DB, category models.Category, stat string) map[int64]int {
	t.Helper()
	var rows []models.StatRecord
	require.NoError(t, db.Table(category.Table()).Where("stat_name = ?", stat).Find(&rows).Error)
	out := map[int64]int{}
	for _, r := range rows {
		if r.Position != nil {
			out[r.PlayerID] = *r.Position
		}
	}
	return out
}

func TestRankCategory_SQLite(t *testing.T) {
	db := setupTestDB(t, 8)
	e := NewEngine(db, dialect.SQLite{}, 4, zap.NewNop())
	ctx := context.Background()

	// Ties break on the lower player id.
	insertStats(t, db, models.CategoryMined, "stone", map[int64]int64{1: 50, 2: 50, 3: 10})
	insertStats(t, db, models.CategoryMined, "air", map[int64]int64{1: 0, 2: 0})
	insertStats(t, db, models.CategoryMined, "dirt", map[int64]int64{1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 6, 7: 7, 8: -1})

	require.NoError(t, e.RankCategory(ctx, models.CategoryMined))

	assert.Equal(t, map[int64]int{1: 1, 2: 2, 3: 3}, positions(t, db, models.CategoryMined, "stone"))
	assert.Empty(t, positions(t, db, models.CategoryMined, "air"))
	assert.Equal(t, map[int64]int{7: 1, 6: 2, 5: 3, 4: 4, 3: 5}, positions(t, db, models.CategoryMined, "dirt"))

	t.Run("Recompute Clears Stale Positions", func(t *testing.T) {
		require.NoError(t, db.Table("mined").Where("stat_name = ? AND player_id = ?", "stone", 1).Update("amount", 0).Error)
		require.NoError(t, db.Table("mined").Where("stat_name = ? AND player_id = ?", "stone", 3).Update("amount", 80).Error)

		require.NoError(t, e.RankCategory(ctx, models.CategoryMined))
		assert.Equal(t, map[int64]int{3: 1, 2: 2}, positions(t, db, models.CategoryMined, "stone"))
	})
}

func TestTasks_AllCategories(t *testing.T) {
	db := setupTestDB(t, 2)
	e := NewEngine(db, dialect.SQLite{}, 8, zap.NewNop())
	for _, c := range models.Categories {
		insertStats(t, db, c, "x", map[int64]int64{1: 1, 2: 2})
	}

	assert.Equal(t, 1, e.PoolSize())

	progress := &counter{}
	res := workerpool.New(e.PoolSize(), time.Minute).Run(context.Background(), e.Tasks(progress))
	assert.Equal(t, len(models.Categories), res.Completed)
	assert.Equal(t, int64(len(models.Categories)), progress.n.Load())

	for _, c := range models.Categories {
		assert.Equal(t, map[int64]int{2: 1, 1: 2}, positions(t, db, c, "x"), c)
	}
}

func TestPoolSize(t *testing.T) {
	assert.Equal(t, 1, NewEngine(nil, dialect.SQLite{}, 8, zap.NewNop()).PoolSize())
	assert.Equal(t, 4, NewEngine(nil, dialect.MySQL{}, 4, zap.NewNop()).PoolSize())
	assert.Equal(t, 9, NewEngine(nil, dialect.Postgres{}, 32, zap.NewNop()).PoolSize())
	assert.Equal(t, 1, NewEngine(nil, dialect.Postgres{}, 0, zap.NewNop()).PoolSize())
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestRankCategory_MySQL(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		e := NewEngine(db, dialect.MySQL{}, 4, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `crafted` SET position = NULL WHERE position IS NOT NULL")).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta("DROP TEMPORARY TABLE IF EXISTS `ranked_crafted`")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("CREATE TEMPORARY TABLE `ranked_crafted` AS SELECT")).WillReturnResult(sqlmock.NewResult(0, 10))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `crafted` AS t JOIN `ranked_crafted` AS r")).WillReturnResult(sqlmock.NewResult(0, 5))
		mock.ExpectCommit()
		mock.ExpectExec(regexp.QuoteMeta("DROP TEMPORARY TABLE IF EXISTS `ranked_crafted`")).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, e.RankCategory(context.Background(), models.CategoryCrafted))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cleanup After Failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		e := NewEngine(db, dialect.MySQL{MariaDB: true}, 4, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `crafted` SET position = NULL").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DROP TEMPORARY TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TEMPORARY TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("UPDATE `crafted` AS t JOIN").WillReturnError(errors.New("deadlock found"))
		mock.ExpectRollback()
		mock.ExpectExec(regexp.QuoteMeta("DROP TEMPORARY TABLE IF EXISTS `ranked_crafted`")).WillReturnResult(sqlmock.NewResult(0, 0))

		err := e.RankCategory(context.Background(), models.CategoryCrafted)
		assert.ErrorContains(t, err, "deadlock found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
