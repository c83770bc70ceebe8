package source

import (
	"encoding/json"
	"errors"
	"fmt"

	"player-statistics/core/utils"
	"player-statistics/feature/statsync/models"
)

// Record holds the statistics of one player, keyed by category then stat name.
// Category and stat names have the namespace stripped.
type Record struct {
	UUID  string
	Stats map[models.Category]map[string]int64
}

// Len is the number of statistics in the record.
func (r *Record) Len() int {
	n := 0
	for _, stats := range r.Stats {
		n += len(stats)
	}
	return n
}

// ErrUnreadable marks a record that cannot be opened or decoded. Retrying it
// without a new write to the file gives the same result.
var ErrUnreadable = errors.New("unreadable record")

type recordFile struct {
	Stats map[string]map[string]any `json:"stats"`
}

// Read parses the record of e. Unknown categories and non-integral amounts are dropped.
func (s *Scanner) Read(e Entry) (*Record, error) {
	f, err := s.fs.Open(e.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrUnreadable, e.Path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var raw recordFile
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrUnreadable, e.Path, err)
	}

	rec := &Record{UUID: e.UUID, Stats: make(map[models.Category]map[string]int64)}
	for rawCategory, stats := range raw.Stats {
		category, err := models.ParseCategory(rawCategory)
		if err != nil {
			continue
		}
		for key, val := range stats {
			amount, ok := utils.ToInt64(val)
			if !ok {
				continue
			}
			if rec.Stats[category] == nil {
				rec.Stats[category] = make(map[string]int64)
			}
			rec.Stats[category][models.StripNamespace(key)] = amount
		}
	}
	return rec, nil
}
