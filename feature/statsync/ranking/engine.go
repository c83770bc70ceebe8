package ranking

import (
	"context"
	"fmt"

	"player-statistics/core/workerpool"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine recomputes the top-5 positions of every category.
type Engine struct {
	db      *gorm.DB
	dialect dialect.Dialect
	threads int
	logger  *zap.Logger
}

// NewEngine creates a ranking engine allowed to use up to threads workers.
func NewEngine(db *gorm.DB, d dialect.Dialect, threads int, logger *zap.Logger) *Engine {
	return &Engine{db: db, dialect: d, threads: threads, logger: logger}
}

// PoolSize is 1 for dialects that cannot rank categories concurrently.
func (e *Engine) PoolSize() int {
	if !e.dialect.ConcurrentRanking() || e.threads < 1 {
		return 1
	}
	return min(e.threads, len(models.Categories))
}

// RankCategory resets and reassigns the positions of one category.
// Reset and assignment commit together; the plan's cleanup statements run
// afterwards on the same connection even when assignment failed.
func (e *Engine) RankCategory(ctx context.Context, category models.Category) error {
	plan := e.dialect.AssignRanks(category)

	return e.db.WithContext(ctx).Connection(func(conn *gorm.DB) (err error) {
		defer func() {
			cleanup := conn.WithContext(context.WithoutCancel(ctx))
			for _, stmt := range plan.Cleanup {
				if cerr := cleanup.Exec(stmt).Error; cerr != nil {
					e.logger.Warn("Rank cleanup failed", zap.String("category", string(category)), zap.Error(cerr))
					if err == nil {
						err = fmt.Errorf("failed to clean up %s ranking: %w", category, cerr)
					}
				}
			}
		}()

		return conn.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(e.dialect.ResetRanks(category)).Error; err != nil {
				return fmt.Errorf("failed to reset %s ranks: %w", category, err)
			}
			for _, stmt := range plan.Setup {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("failed to prepare %s ranking: %w", category, err)
				}
			}
			if err := tx.Exec(plan.Apply).Error; err != nil {
				return fmt.Errorf("failed to assign %s ranks: %w", category, err)
			}
			return nil
		})
	})
}

// Tasks returns one ranking task per category.
func (e *Engine) Tasks(progress workerpool.Progress) []workerpool.Task {
	tasks := make([]workerpool.Task, 0, len(models.Categories))
	for _, category := range models.Categories {
		tasks = append(tasks, func(ctx context.Context) error {
			if err := e.RankCategory(ctx, category); err != nil {
				e.logger.Warn("Ranking failed", zap.String("category", string(category)), zap.Error(err))
				return err
			}
			progress.Advance()
			return nil
		})
	}
	return tasks
}
