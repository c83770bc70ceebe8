package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrSourceMissing is returned when the stats directory does not exist.
var ErrSourceMissing = errors.New("stats directory does not exist")

const recordExt = ".json"

// Entry is a record file that changed since the last pass.
type Entry struct {
	UUID    string
	Path    string
	ModTime time.Time
}

// Scanner lists per-player record files.
type Scanner struct {
	fs  afero.Fs
	dir string
}

// NewScanner creates a scanner over dir on fs.
func NewScanner(fs afero.Fs, dir string) *Scanner {
	return &Scanner{fs: fs, dir: dir}
}

// Dir returns the scanned directory.
func (s *Scanner) Dir() string {
	return s.dir
}

// Scan returns the records modified strictly after since, in no particular order.
// Files whose name is not a UUID are skipped.
func (s *Scanner) Scan(since time.Time) ([]Entry, error) {
	ok, err := afero.DirExists(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", s.dir, err)
	}
	if !ok {
		return nil, ErrSourceMissing
	}

	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	var entries []Entry
	for _, info := range infos {
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), recordExt) {
			continue
		}
		id, ok := ParseUUID(strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())))
		if !ok {
			continue
		}
		if !info.ModTime().After(since) {
			continue
		}
		entries = append(entries, Entry{
			UUID:    id,
			Path:    filepath.Join(s.dir, info.Name()),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// ParseUUID accepts only the 36 character hyphenated form and returns it lowercased.
func ParseUUID(stem string) (string, bool) {
	if len(stem) != 36 {
		return "", false
	}
	id, err := uuid.Parse(stem)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
