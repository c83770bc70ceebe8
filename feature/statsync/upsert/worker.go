package upsert

import (
	"context"
	"fmt"
	"sort"
	"time"

	"player-statistics/core/workerpool"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/models"
	"player-statistics/feature/statsync/source"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultBatchSize bounds the rows of one upsert statement.
const DefaultBatchSize = 500

// Resolver maps a player UUID to its internal id.
type Resolver interface {
	Resolve(ctx context.Context, playerUUID string, lastSeen time.Time) (int64, error)
}

// Reader decodes the record behind an entry.
type Reader interface {
	Read(e source.Entry) (*source.Record, error)
}

// Worker writes the statistics of changed records.
type Worker struct {
	db        *gorm.DB
	dialect   dialect.Dialect
	reader    Reader
	resolver  Resolver
	batchSize int
	logger    *zap.Logger
}

// NewWorker creates an upsert worker.
func NewWorker(db *gorm.DB, d dialect.Dialect, reader Reader, resolver Resolver, batchSize int, logger *zap.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Worker{
		db:        db,
		dialect:   d,
		reader:    reader,
		resolver:  resolver,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Sync reads one record, resolves its player and overwrites the player's
// amounts, one batched statement per category chunk, in a single transaction.
// It returns the number of statistics written.
func (w *Worker) Sync(ctx context.Context, entry source.Entry) (int, error) {
	rec, err := w.reader.Read(entry)
	if err != nil {
		return 0, err
	}

	playerID, err := w.resolver.Resolve(ctx, entry.UUID, entry.ModTime)
	if err != nil {
		return 0, err
	}
	if rec.Len() == 0 {
		return 0, nil
	}

	written := 0
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, category := range models.Categories {
			rows := buildRows(playerID, rec.Stats[category])
			for start := 0; start < len(rows); start += w.batchSize {
				chunk := rows[start:min(start+w.batchSize, len(rows))]
				stmt, args := w.dialect.UpsertAmounts(category, chunk)
				if err := tx.Exec(stmt, args...).Error; err != nil {
					return fmt.Errorf("failed to upsert %s stats: %w", category, err)
				}
			}
			written += len(rows)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Tasks wraps one Sync per entry for the worker pool. Progress advances only
// for players whose sync succeeded.
func (w *Worker) Tasks(entries []source.Entry, progress workerpool.Progress) []workerpool.Task {
	tasks := make([]workerpool.Task, 0, len(entries))
	for _, entry := range entries {
		tasks = append(tasks, func(ctx context.Context) error {
			n, err := w.Sync(ctx, entry)
			if err != nil {
				w.logger.Warn("Player sync failed",
					zap.String("uuid", entry.UUID),
					zap.String("path", entry.Path),
					zap.Error(err),
				)
				return err
			}
			w.logger.Debug("Player synced", zap.String("uuid", entry.UUID), zap.Int("stats", n))
			progress.Advance()
			return nil
		})
	}
	return tasks
}

// buildRows sorts by stat name so statements and lock order are deterministic.
func buildRows(playerID int64, stats map[string]int64) []models.StatRow {
	if len(stats) == 0 {
		return nil
	}
	rows := make([]models.StatRow, 0, len(stats))
	for name, amount := range stats {
		rows = append(rows, models.StatRow{PlayerID: playerID, StatName: name, Amount: amount})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StatName < rows[j].StatName })
	return rows
}
