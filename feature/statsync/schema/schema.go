package schema

import (
	"context"
	"fmt"
	"time"

	"player-statistics/core/database"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Epoch is the last_update of a database that never completed a pass.
var Epoch = time.Unix(0, 0).UTC()

// Bootstrap creates every table that does not exist yet and seeds the
// metadata row. It is safe to run on every pass.
func Bootstrap(ctx context.Context, db *gorm.DB, d dialect.Dialect) error {
	conn := db.WithContext(ctx)
	for _, stmt := range d.SchemaStatements() {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	seed := models.SyncMetadata{ID: models.MetadataID, LastUpdate: Epoch}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed sync metadata: %w", err)
	}
	return nil
}

// Tables lists every table managed by the engine.
func Tables() []string {
	tables := []string{models.TableIdentity, models.TableMetadata, models.TableHallOfFame}
	for _, c := range models.Categories {
		tables = append(tables, c.Table())
	}
	return tables
}

// Inventory returns the columns of every managed table. Missing tables map to nil.
func Inventory(ctx context.Context, db *gorm.DB) (map[string][]database.ColumnInfo, error) {
	inv := make(map[string][]database.ColumnInfo, len(Tables()))
	for _, t := range Tables() {
		cols, err := database.GetTableColumns(db.WithContext(ctx), t)
		if err != nil {
			return nil, err
		}
		inv[t] = cols
	}
	return inv, nil
}

// LoadMetadata reads the metadata row.
func LoadMetadata(ctx context.Context, db *gorm.DB) (*models.SyncMetadata, error) {
	var meta models.SyncMetadata
	if err := db.WithContext(ctx).First(&meta, models.MetadataID).Error; err != nil {
		return nil, fmt.Errorf("failed to load sync metadata: %w", err)
	}
	return &meta, nil
}

// CommitMetadata stores the pass time and the server descriptor.
func CommitMetadata(ctx context.Context, db *gorm.DB, meta models.SyncMetadata) error {
	meta.ID = models.MetadataID
	err := db.WithContext(ctx).
		Model(&models.SyncMetadata{ID: models.MetadataID}).
		Select("last_update", "server_name", "server_desc", "server_url", "server_icon").
		Updates(&meta).Error
	if err != nil {
		return fmt.Errorf("failed to commit sync metadata: %w", err)
	}
	return nil
}
