package models

import "time"

// Table names outside the per-category stat tables.
const (
	TableIdentity   = "uuid_map"
	TableMetadata   = "sync_metadata"
	TableHallOfFame = "hall_of_fame"
)

// MetadataID is the primary key of the single metadata row.
const MetadataID = 1

// MaxNickLength is the width of the display name column.
const MaxNickLength = 16

// MaxRank is the lowest position written by ranking.
const MaxRank = 5

// RankWeights maps a position (index+1) to hall of fame points.
var RankWeights = [MaxRank]int64{10, 5, 3, 2, 1}

// PlayerIdentity maps an external UUID to the internal player id.
type PlayerIdentity struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UUID       string     `gorm:"column:player_uuid"`
	Nickname   *string    `gorm:"column:player_nick"`
	LastOnline *time.Time `gorm:"column:player_last_online"`
}

func (PlayerIdentity) TableName() string { return TableIdentity }

// StatRecord is one row of a category table.
type StatRecord struct {
	PlayerID int64  `gorm:"column:player_id;primaryKey"`
	StatName string `gorm:"column:stat_name;primaryKey"`
	Amount   int64  `gorm:"column:amount"`
	Position *int   `gorm:"column:position"`
}

// StatRow is the input of a batched upsert.
type StatRow struct {
	PlayerID int64
	StatName string
	Amount   int64
}

// SyncMetadata is the singleton describing the last committed pass.
type SyncMetadata struct {
	ID                uint      `gorm:"column:id;primaryKey"`
	LastUpdate        time.Time `gorm:"column:last_update"`
	ServerName        *string   `gorm:"column:server_name"`
	ServerDescription *string   `gorm:"column:server_desc"`
	ServerURL         *string   `gorm:"column:server_url"`
	ServerIcon        []byte    `gorm:"column:server_icon"`
}

func (SyncMetadata) TableName() string { return TableMetadata }

// HallOfFameEntry holds placement counts and the weighted score of a player.
type HallOfFameEntry struct {
	PlayerID    int64 `gorm:"column:player_id;primaryKey;autoIncrement:false"`
	FirstPlace  int64 `gorm:"column:first_place"`
	SecondPlace int64 `gorm:"column:second_place"`
	ThirdPlace  int64 `gorm:"column:third_place"`
	FourthPlace int64 `gorm:"column:fourth_place"`
	FifthPlace  int64 `gorm:"column:fifth_place"`
	Score       int64 `gorm:"column:score"`
}

func (HallOfFameEntry) TableName() string { return TableHallOfFame }

// Count returns the placement count for position 1..5.
func (e *HallOfFameEntry) Count(position int) int64 {
	switch position {
	case 1:
		return e.FirstPlace
	case 2:
		return e.SecondPlace
	case 3:
		return e.ThirdPlace
	case 4:
		return e.FourthPlace
	case 5:
		return e.FifthPlace
	}
	return 0
}

// AddPlacement records one placement and updates the score.
// Positions outside 1..5 are ignored.
func (e *HallOfFameEntry) AddPlacement(position int) {
	switch position {
	case 1:
		e.FirstPlace++
	case 2:
		e.SecondPlace++
	case 3:
		e.ThirdPlace++
	case 4:
		e.FourthPlace++
	case 5:
		e.FifthPlace++
	default:
		return
	}
	e.Score += RankWeights[position-1]
}

// Placements is the total number of top-5 placements.
func (e *HallOfFameEntry) Placements() int64 {
	return e.FirstPlace + e.SecondPlace + e.ThirdPlace + e.FourthPlace + e.FifthPlace
}
