package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gorm.io/gorm"
)

// ErrNotLocal is returned when the store is not an embedded SQLite database.
var ErrNotLocal = errors.New("snapshots require the sqlite driver")

// ContentType of an exported database.
const ContentType = "application/vnd.sqlite3"

// Exporter writes consistent copies of a SQLite database.
type Exporter struct {
	db    *gorm.DB
	local bool
	fs    afero.Fs
	dir   string
}

// NewExporter creates an exporter writing temporary copies into dir on fs.
// fs must be backed by the OS filesystem the database engine writes to.
func NewExporter(db *gorm.DB, local bool, fs afero.Fs, dir string) *Exporter {
	return &Exporter{db: db, local: local, fs: fs, dir: dir}
}

// Export is an open copy of the database. Closing it deletes the copy.
type Export struct {
	afero.File
	Size int64
	fs   afero.Fs
}

// Close closes and removes the copy.
func (e *Export) Close() error {
	err := e.File.Close()
	return errors.Join(err, e.fs.Remove(e.Name()))
}

// Export copies the database with VACUUM INTO, which reads one consistent
// version of it even while a pass is writing.
func (x *Exporter) Export(ctx context.Context) (*Export, error) {
	if !x.local {
		return nil, ErrNotLocal
	}

	tmp, err := afero.TempFile(x.fs, x.dir, "player-statistics-*.db")
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot file: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()

	// The target must be empty; VACUUM INTO refuses to overwrite a database.
	if err := x.db.WithContext(ctx).Exec("VACUUM INTO ?", name).Error; err != nil {
		_ = x.fs.Remove(name)
		return nil, fmt.Errorf("failed to export database: %w", err)
	}

	f, err := x.fs.Open(name)
	if err != nil {
		_ = x.fs.Remove(name)
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		_ = x.fs.Remove(name)
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return &Export{File: f, Size: info.Size(), fs: x.fs}, nil
}
