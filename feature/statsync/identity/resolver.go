package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"player-statistics/feature/statsync/models"

	lru "github.com/hashicorp/golang-lru"
	"gorm.io/gorm"
)

// DefaultCacheSize is used when a non-positive cache size is configured.
const DefaultCacheSize = 4096

// Resolver maps external player UUIDs to internal ids, creating them on first sight.
// It is safe for concurrent use.
type Resolver struct {
	db    *gorm.DB
	cache *lru.Cache
}

// NewResolver creates a resolver keeping up to cacheSize ids in memory.
func NewResolver(db *gorm.DB, cacheSize int) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity cache: %w", err)
	}
	return &Resolver{db: db, cache: cache}, nil
}

// Resolve returns the internal id of playerUUID and records lastSeen as its
// last online time.
func (r *Resolver) Resolve(ctx context.Context, playerUUID string, lastSeen time.Time) (int64, error) {
	conn := r.db.WithContext(ctx)
	seen := lastSeen.UTC()

	if v, ok := r.cache.Get(playerUUID); ok {
		id := v.(int64)
		found, err := r.touch(conn, id, seen)
		if err != nil {
			return 0, err
		}
		if found {
			return id, nil
		}
		// Row removed behind our back.
		r.cache.Remove(playerUUID)
	}

	var identity models.PlayerIdentity
	err := conn.Where("player_uuid = ?", playerUUID).Take(&identity).Error
	switch {
	case err == nil:
		if _, err := r.touch(conn, identity.ID, seen); err != nil {
			return 0, err
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		identity = models.PlayerIdentity{UUID: playerUUID, LastOnline: &seen}
		if err := conn.Create(&identity).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return 0, fmt.Errorf("failed to create identity for %s: %w", playerUUID, err)
			}
			// Lost an insert race; the winner's row is authoritative.
			if err := conn.Where("player_uuid = ?", playerUUID).Take(&identity).Error; err != nil {
				return 0, fmt.Errorf("failed to reload identity for %s: %w", playerUUID, err)
			}
			if _, err := r.touch(conn, identity.ID, seen); err != nil {
				return 0, err
			}
		}

	default:
		return 0, fmt.Errorf("failed to look up identity for %s: %w", playerUUID, err)
	}

	r.cache.Add(playerUUID, identity.ID)
	return identity.ID, nil
}

// Forget drops every cached mapping.
func (r *Resolver) Forget() {
	r.cache.Purge()
}

func (r *Resolver) touch(conn *gorm.DB, id int64, seen time.Time) (bool, error) {
	res := conn.Model(&models.PlayerIdentity{}).Where("id = ?", id).Update("player_last_online", seen)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update last online for player %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
