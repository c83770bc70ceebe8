package halloffame

import (
	"context"
	"fmt"
	"sort"

	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultBatchSize is the number of entries per INSERT.
const DefaultBatchSize = 500

type placement struct {
	PlayerID int64 `gorm:"column:player_id"`
	Position int   `gorm:"column:position"`
}

// Aggregator rebuilds the hall of fame from the ranked category tables.
type Aggregator struct {
	db        *gorm.DB
	dialect   dialect.Dialect
	batchSize int
	logger    *zap.Logger
}

func NewAggregator(db *gorm.DB, d dialect.Dialect, batchSize int, logger *zap.Logger) *Aggregator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Aggregator{db: db, dialect: d, batchSize: batchSize, logger: logger}
}

// Compute counts the placements of every ranked player.
// Entries are ordered by score descending, then player id.
func (a *Aggregator) Compute(ctx context.Context) ([]models.HallOfFameEntry, error) {
	return a.compute(a.db.WithContext(ctx))
}

func (a *Aggregator) compute(db *gorm.DB) ([]models.HallOfFameEntry, error) {
	byPlayer := make(map[int64]*models.HallOfFameEntry)

	for _, category := range models.Categories {
		var rows []placement
		err := db.Table(category.Table()).
			Select("player_id", "position").
			Where("position IS NOT NULL").
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read %s placements: %w", category, err)
		}

		for _, r := range rows {
			entry, ok := byPlayer[r.PlayerID]
			if !ok {
				entry = &models.HallOfFameEntry{PlayerID: r.PlayerID}
				byPlayer[r.PlayerID] = entry
			}
			entry.AddPlacement(r.Position)
		}
	}

	entries := make([]models.HallOfFameEntry, 0, len(byPlayer))
	for _, e := range byPlayer {
		if e.Placements() > 0 {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	return entries, nil
}

// Rebuild replaces the hall of fame with freshly computed entries in one
// transaction and returns how many players it holds.
func (a *Aggregator) Rebuild(ctx context.Context) (int, error) {
	var count int
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := a.compute(tx)
		if err != nil {
			return err
		}

		if err := tx.Exec(a.dialect.ClearHallOfFame()).Error; err != nil {
			return fmt.Errorf("failed to clear hall of fame: %w", err)
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(&entries, a.batchSize).Error; err != nil {
				return fmt.Errorf("failed to write hall of fame: %w", err)
			}
		}
		count = len(entries)
		return nil
	})
	if err != nil {
		return 0, err
	}

	a.logger.Debug("Hall of fame rebuilt", zap.Int("players", count))
	return count, nil
}
