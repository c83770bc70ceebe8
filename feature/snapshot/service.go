package snapshot

import (
	"context"
	"fmt"
	"strings"

	"player-statistics/feature/statsync/models"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// RankedRow is one ranked statistic with its player.
type RankedRow struct {
	PlayerID int64   `json:"player_id" gorm:"column:player_id"`
	UUID     string  `json:"uuid" gorm:"column:player_uuid"`
	Nickname *string `json:"nickname,omitempty" gorm:"column:player_nick"`
	Stat     string  `json:"stat" gorm:"column:stat_name"`
	Amount   int64   `json:"amount" gorm:"column:amount"`
	Position int     `json:"position" gorm:"column:position"`
}

// HallOfFameRow is one hall of fame entry with its player.
type HallOfFameRow struct {
	PlayerID    int64   `json:"player_id" gorm:"column:player_id"`
	UUID        string  `json:"uuid" gorm:"column:player_uuid"`
	Nickname    *string `json:"nickname,omitempty" gorm:"column:player_nick"`
	FirstPlace  int64   `json:"first_place" gorm:"column:first_place"`
	SecondPlace int64   `json:"second_place" gorm:"column:second_place"`
	ThirdPlace  int64   `json:"third_place" gorm:"column:third_place"`
	FourthPlace int64   `json:"fourth_place" gorm:"column:fourth_place"`
	FifthPlace  int64   `json:"fifth_place" gorm:"column:fifth_place"`
	Score       int64   `json:"score" gorm:"column:score"`
}

// rankedRows implements fuzzy.Source over stat names and player names.
type rankedRows []RankedRow

func (r rankedRows) Len() int { return len(r) }

func (r rankedRows) String(i int) string {
	name := r[i].UUID
	if r[i].Nickname != nil {
		name = *r[i].Nickname
	}
	return r[i].Stat + " " + name
}

// Service reads the synced store. It never writes to it.
type Service struct {
	db       *gorm.DB
	exporter *Exporter
	logger   *zap.Logger
}

// NewService creates a new snapshot service.
func NewService(db *gorm.DB, exporter *Exporter, logger *zap.Logger) *Service {
	return &Service{db: db, exporter: exporter, logger: logger}
}

// Export returns a consistent copy of the database.
func (s *Service) Export(ctx context.Context) (*Export, error) {
	return s.exporter.Export(ctx)
}

// HallOfFame returns the best scored players.
func (s *Service) HallOfFame(ctx context.Context, limit int) ([]HallOfFameRow, error) {
	var rows []HallOfFameRow
	err := s.db.WithContext(ctx).
		Table(models.TableHallOfFame+" AS h").
		Select("h.player_id, u.player_uuid, u.player_nick, h.first_place, h.second_place, h.third_place, h.fourth_place, h.fifth_place, h.score").
		Joins("JOIN "+models.TableIdentity+" AS u ON u.id = h.player_id").
		Order("h.score DESC, h.player_id").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read hall of fame: %w", err)
	}
	return rows, nil
}

// Category returns the ranked rows of one category ordered by stat then
// position. A non-empty query keeps the rows whose stat or player name
// fuzzily matches it, best match first.
func (s *Service) Category(ctx context.Context, category models.Category, query string, limit int) ([]RankedRow, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCategory, category)
	}
	limit = clampLimit(limit)
	query = strings.ToLower(strings.TrimSpace(query))

	tx := s.db.WithContext(ctx).
		Table(category.Table()+" AS s").
		Select("s.player_id, u.player_uuid, u.player_nick, s.stat_name, s.amount, s.position").
		Joins("JOIN "+models.TableIdentity+" AS u ON u.id = s.player_id").
		Where("s.position IS NOT NULL").
		Order("s.stat_name, s.position")
	if query == "" {
		tx = tx.Limit(limit)
	}

	var rows rankedRows
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read %s rankings: %w", category, err)
	}
	if query == "" {
		return rows, nil
	}

	matches := fuzzy.FindFrom(query, rows)
	out := make([]RankedRow, 0, min(len(matches), limit))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, rows[m.Index])
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}
