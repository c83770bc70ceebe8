package schema

import (
	"context"
	"testing"
	"time"

	"player-statistics/core/database"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Path: database.MemoryPath})
	require.NoError(t, err)
	return db
}

func TestBootstrap(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, Bootstrap(ctx, db, dialect.SQLite{}))
	// Second run is a no-op.
	require.NoError(t, Bootstrap(ctx, db, dialect.SQLite{}))

	inv, err := Inventory(ctx, db)
	require.NoError(t, err)
	assert.Len(t, inv, 12)
	for table, cols := range inv {
		assert.NotEmpty(t, cols, table)
	}

	var count int64
	require.NoError(t, db.Model(&models.SyncMetadata{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	meta, err := LoadMetadata(ctx, db)
	require.NoError(t, err)
	assert.True(t, meta.LastUpdate.Equal(Epoch))
	assert.Nil(t, meta.ServerName)
}

func TestCommitMetadata(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, Bootstrap(ctx, db, dialect.SQLite{}))

	name := "Survival"
	passTime := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	err := CommitMetadata(ctx, db, models.SyncMetadata{
		LastUpdate: passTime,
		ServerName: &name,
		ServerIcon: []byte{0x89, 'P', 'N', 'G'},
	})
	require.NoError(t, err)

	meta, err := LoadMetadata(ctx, db)
	require.NoError(t, err)
	assert.True(t, meta.LastUpdate.Equal(passTime))
	require.NotNil(t, meta.ServerName)
	assert.Equal(t, "Survival", *meta.ServerName)
	assert.Nil(t, meta.ServerURL)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, meta.ServerIcon)

	// Bootstrap must not reset an existing row.
	require.NoError(t, Bootstrap(ctx, db, dialect.SQLite{}))
	meta, err = LoadMetadata(ctx, db)
	require.NoError(t, err)
	assert.True(t, meta.LastUpdate.Equal(passTime))
}

func TestLoadMetadata_MissingTable(t *testing.T) {
	db := setupTestDB(t)
	_, err := LoadMetadata(context.Background(), db)
	assert.Error(t, err)
}
