package enrich

import (
	"context"
	"errors"
	"fmt"

	"player-statistics/core/workerpool"
	"player-statistics/feature/statsync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Lookup resolves a display name.
type Lookup interface {
	Lookup(ctx context.Context, playerUUID string) (string, error)
}

// Enricher fills missing display names.
type Enricher struct {
	db     *gorm.DB
	lookup Lookup
	logger *zap.Logger
}

// NewEnricher creates an enricher.
func NewEnricher(db *gorm.DB, lookup Lookup, logger *zap.Logger) *Enricher {
	return &Enricher{db: db, lookup: lookup, logger: logger}
}

// Pending returns every identity without a display name.
func (e *Enricher) Pending(ctx context.Context) ([]models.PlayerIdentity, error) {
	var players []models.PlayerIdentity
	err := e.db.WithContext(ctx).
		Select("id", "player_uuid").
		Where("player_nick IS NULL").
		Order("id").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list players without nickname: %w", err)
	}
	return players, nil
}

// Enrich looks up and stores one player's name. A failed lookup leaves it
// null for the next pass.
func (e *Enricher) Enrich(ctx context.Context, player models.PlayerIdentity) (string, error) {
	name, err := e.lookup.Lookup(ctx, player.UUID)
	if err != nil {
		return "", err
	}
	name = truncate(name, models.MaxNickLength)

	err = e.db.WithContext(ctx).
		Model(&models.PlayerIdentity{}).
		Where("id = ? AND player_nick IS NULL", player.ID).
		Update("player_nick", name).Error
	if err != nil {
		return "", fmt.Errorf("failed to store nickname of player %d: %w", player.ID, err)
	}
	return name, nil
}

// Tasks wraps one Enrich per player for the worker pool.
func (e *Enricher) Tasks(players []models.PlayerIdentity, progress workerpool.Progress) []workerpool.Task {
	tasks := make([]workerpool.Task, 0, len(players))
	for _, p := range players {
		tasks = append(tasks, func(ctx context.Context) error {
			name, err := e.Enrich(ctx, p)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					e.logger.Debug("Nickname not found", zap.String("uuid", p.UUID))
				} else {
					e.logger.Warn("Nickname lookup failed", zap.String("uuid", p.UUID), zap.Error(err))
				}
				return err
			}
			e.logger.Debug("Nickname resolved", zap.String("uuid", p.UUID), zap.String("nick", name))
			progress.Advance()
			return nil
		})
	}
	return tasks
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
