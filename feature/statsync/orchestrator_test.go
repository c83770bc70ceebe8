package statsync

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"player-statistics/core/database"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/enrich"
	"player-statistics/feature/statsync/models"
	"player-statistics/feature/statsync/schema"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	statsDir = "world/stats"
	uuidA    = "069a79f4-44e9-4726-a5be-fca90e38aaf5"
	uuidB    = "853c80ef-3c37-49fd-aa49-938b674adae6"
	uuidC    = "00000000-0000-0000-0009-01f5f1b0f4e0"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeLookup resolves names from a map. With gate set, lookups wait until it
// is closed.
type fakeLookup struct {
	names   map[string]string
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
	calls   atomic.Int64
}

func (f *fakeLookup) Lookup(ctx context.Context, playerUUID string) (string, error) {
	f.calls.Add(1)
	if f.gate != nil {
		f.once.Do(func() { close(f.entered) })
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if name, ok := f.names[playerUUID]; ok {
		return name, nil
	}
	return "", enrich.ErrNotFound
}

// observingFs reports every record file opened.
type observingFs struct {
	afero.Fs
	onOpen func(name string)
}

func (o observingFs) Open(name string) (afero.File, error) {
	if strings.HasSuffix(name, ".json") && o.onOpen != nil {
		o.onOpen(name)
	}
	return o.Fs.Open(name)
}

func writeRecord(t *testing.T, fs afero.Fs, id, body string, mod time.Time) {
	t.Helper()
	path := filepath.Join(statsDir, id+".json")
	require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
	require.NoError(t, fs.Chtimes(path, mod, mod))
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Path: database.MemoryPath})
	require.NoError(t, err)
	return db
}

func newTestOrchestrator(t *testing.T, db *gorm.DB, fs afero.Fs, lookup enrich.Lookup, cfg Config) *Orchestrator {
	t.Helper()
	if cfg.StatsDir == "" {
		cfg.StatsDir = statsDir
	}
	cfg.Threads = 1
	cfg.UpsertTimeoutSeconds = 30
	cfg.NickTimeoutSeconds = 30
	cfg.RankTimeoutSeconds = 30

	o, err := NewOrchestrator(cfg, db, dialect.SQLite{}, fs, lookup, nil, zap.NewNop())
	require.NoError(t, err)
	o.now = func() time.Time { return baseTime.Add(2 * time.Hour) }
	return o
}

// seedLastUpdate stores a committed pass at baseTime.
func seedLastUpdate(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, schema.Bootstrap(ctx, db, dialect.SQLite{}))
	require.NoError(t, schema.CommitMetadata(ctx, db, models.SyncMetadata{LastUpdate: baseTime}))
}

func TestRun_ChangedRecordsOnly(t *testing.T) {
	db := setupTestDB(t)
	seedLastUpdate(t, db)

	mem := afero.NewMemMapFs()
	writeRecord(t, mem, uuidA, `{"stats":{"minecraft:mined":{"minecraft:stone":50,"minecraft:dirt":3}}}`, baseTime.Add(time.Hour))
	writeRecord(t, mem, uuidB, `{"stats":{"minecraft:mined":{"minecraft:stone":50}}}`, baseTime.Add(time.Hour))
	writeRecord(t, mem, uuidC, `{"stats":{"minecraft:mined":{"minecraft:stone":10}}}`, baseTime.Add(-time.Hour))

	var o *Orchestrator
	var seen []Snapshot
	var mu sync.Mutex
	fs := observingFs{Fs: mem, onOpen: func(string) {
		mu.Lock()
		seen = append(seen, o.State().Snapshot())
		mu.Unlock()
	}}

	lookup := &fakeLookup{names: map[string]string{uuidA: "Notch"}}
	o = newTestOrchestrator(t, db, fs, lookup, Config{})

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Committed)
	assert.False(t, report.Incomplete)
	assert.Equal(t, PhaseReport{Total: 2, Completed: 2}, report.Upserts)
	assert.Equal(t, 2, report.Nicknames.Total)
	assert.Equal(t, 1, report.Nicknames.Completed)
	assert.Equal(t, len(models.Categories), report.Ranking.Completed)
	assert.Equal(t, 2, report.HallOfFame)

	require.Len(t, seen, 2)
	for _, s := range seen {
		assert.Equal(t, "SyncingData", s.Status)
		assert.Equal(t, int64(2), s.ProgressTotal)
	}

	var identities []models.PlayerIdentity
	require.NoError(t, db.Order("id").Find(&identities).Error)
	require.Len(t, identities, 2)
	assert.Equal(t, uuidA, identities[0].UUID)
	require.NotNil(t, identities[0].Nickname)
	assert.Equal(t, "Notch", *identities[0].Nickname)
	assert.Nil(t, identities[1].Nickname)

	// A and B tie on stone; the lower id ranks first.
	var stone []models.StatRecord
	require.NoError(t, db.Table("mined").Where("stat_name = ?", "stone").Order("player_id").Find(&stone).Error)
	require.Len(t, stone, 2)
	assert.Equal(t, 1, *stone[0].Position)
	assert.Equal(t, 2, *stone[1].Position)

	meta, err := schema.LoadMetadata(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, baseTime.Add(2*time.Hour).Equal(meta.LastUpdate))

	snap := o.State().Snapshot()
	assert.Equal(t, "Idle", snap.Status)
	assert.Equal(t, resultSuccess, snap.LastResult)
	require.NotNil(t, snap.LastSync)
	assert.Equal(t, "2024-05-01 14:00:00 UTC", snap.LastSyncDisplay)

	t.Run("Second Run Schedules Nothing", func(t *testing.T) {
		report, err := o.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Upserts.Total)
		assert.True(t, report.Committed)
		assert.Len(t, seen, 2)
	})

	t.Run("Force Full Rescans Everything", func(t *testing.T) {
		report, err := o.Run(context.Background(), ForceFull())
		require.NoError(t, err)
		assert.Equal(t, 3, report.Upserts.Total)
		assert.Equal(t, 3, report.Upserts.Completed)
	})
}

func TestRun_AlreadyRunning(t *testing.T) {
	db := setupTestDB(t)
	mem := afero.NewMemMapFs()
	writeRecord(t, mem, uuidA, `{"stats":{"minecraft:used":{"minecraft:torch":1}}}`, baseTime)

	lookup := &fakeLookup{gate: make(chan struct{}), entered: make(chan struct{})}
	o := newTestOrchestrator(t, db, mem, lookup, Config{})

	done, err := o.Start(context.Background())
	require.NoError(t, err)

	select {
	case <-lookup.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("pass never reached nickname lookup")
	}
	assert.Equal(t, "FetchingNicks", o.State().Snapshot().Status)

	_, err = o.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	_, err = o.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(lookup.gate)
	out := <-done
	require.NoError(t, out.Err)
	assert.True(t, out.Report.Committed)
	o.Wait()

	assert.Equal(t, StatusIdle, o.State().Status())
	_, err = o.Run(context.Background())
	assert.NoError(t, err)
}

func TestRun_SourceMissing(t *testing.T) {
	db := setupTestDB(t)
	reg := prometheus.NewRegistry()

	o := newTestOrchestrator(t, db, afero.NewMemMapFs(), nil, Config{})
	o.metrics = NewMetrics(reg)

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.SourceMissing)
	assert.False(t, report.Committed)

	meta, err := schema.LoadMetadata(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, schema.Epoch.Equal(meta.LastUpdate))

	snap := o.State().Snapshot()
	assert.Equal(t, "Idle", snap.Status)
	assert.Equal(t, NeverSynced, snap.LastSyncDisplay)
	assert.Equal(t, float64(1), testutil.ToFloat64(o.metrics.passes.WithLabelValues(resultSkipped)))
}

func TestRun_UnreadableRecordDoesNotHoldBack(t *testing.T) {
	db := setupTestDB(t)
	mem := afero.NewMemMapFs()
	writeRecord(t, mem, uuidA, `{"stats":`, baseTime)
	writeRecord(t, mem, uuidB, `{"stats":{"minecraft:crafted":{"minecraft:bread":4}}}`, baseTime)

	o := newTestOrchestrator(t, db, mem, nil, Config{MaxHeldPasses: 3})
	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Upserts.Failed)
	assert.Equal(t, 1, report.Upserts.Completed)
	assert.False(t, report.Incomplete)
	assert.False(t, report.WatermarkHeld)
	assert.True(t, report.Nicknames.Skipped)
	assert.True(t, baseTime.Add(2*time.Hour).Equal(report.LastUpdate))
}

func TestRun_StoreRejectionDoesNotHoldBack(t *testing.T) {
	db := setupTestDB(t)
	seedLastUpdate(t, db)
	require.NoError(t, db.Exec(`CREATE TRIGGER reject_poison BEFORE INSERT ON mined
		WHEN NEW.stat_name = 'poison'
		BEGIN SELECT RAISE(ABORT, 'poison rejected'); END`).Error)

	mem := afero.NewMemMapFs()
	writeRecord(t, mem, uuidA, `{"stats":{"minecraft:crafted":{"minecraft:bread":4}}}`, baseTime.Add(time.Hour))
	writeRecord(t, mem, uuidB, `{"stats":{"minecraft:mined":{"minecraft:poison":1}}}`, baseTime.Add(time.Hour))

	o := newTestOrchestrator(t, db, mem, nil, Config{MaxHeldPasses: 3})

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseReport{Total: 2, Completed: 1, Failed: 1}, report.Upserts)
	assert.False(t, report.Incomplete)
	assert.False(t, report.WatermarkHeld)
	assert.True(t, baseTime.Add(2*time.Hour).Equal(report.LastUpdate))

	report, err = o.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Upserts.Total, "a rejected record is not rescanned without a new write")
}

func TestRun_RetryableFailureHoldsWatermark(t *testing.T) {
	db := setupTestDB(t)
	seedLastUpdate(t, db)
	// Every upsert into mined now fails with a plain SQL error.
	require.NoError(t, db.Exec(`ALTER TABLE mined RENAME COLUMN amount TO amount_old`).Error)

	mem := afero.NewMemMapFs()
	writeRecord(t, mem, uuidA, `{"stats":{"minecraft:crafted":{"minecraft:bread":4}}}`, baseTime.Add(time.Hour))
	writeRecord(t, mem, uuidB, `{"stats":{"minecraft:mined":{"minecraft:stone":9}}}`, baseTime.Add(time.Hour))

	o := newTestOrchestrator(t, db, mem, nil, Config{MaxHeldPasses: 2})

	for pass := 1; pass <= 2; pass++ {
		report, err := o.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, PhaseReport{Total: 2, Completed: 1, Failed: 1}, report.Upserts, "pass %d", pass)
		assert.True(t, report.Incomplete)
		assert.True(t, report.WatermarkHeld)
		assert.True(t, report.Committed)
		assert.True(t, baseTime.Equal(report.LastUpdate))

		meta, err := schema.LoadMetadata(context.Background(), db)
		require.NoError(t, err)
		assert.True(t, baseTime.Equal(meta.LastUpdate))

		// The status surface still shows the committed pass.
		snap := o.State().Snapshot()
		assert.Equal(t, "2024-05-01 14:00:00 UTC", snap.LastSyncDisplay)
		assert.Equal(t, resultSuccess, snap.LastResult)
	}

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Upserts.Total)
	assert.True(t, report.Incomplete)
	assert.False(t, report.WatermarkHeld, "held passes are capped")
	assert.True(t, baseTime.Add(2*time.Hour).Equal(report.LastUpdate))

	report, err = o.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Upserts.Total)
	assert.False(t, report.Incomplete)
}

func TestRun_MetadataAndHooks(t *testing.T) {
	db := setupTestDB(t)
	mem := afero.NewMemMapFs()
	writeRecord(t, mem, uuidA, `{"stats":{"minecraft:killed":{"minecraft:zombie":7}}}`, baseTime)
	require.NoError(t, afero.WriteFile(mem, "server-icon.png", []byte{0x89, 'P', 'N', 'G'}, 0o644))

	reg := prometheus.NewRegistry()
	o := newTestOrchestrator(t, db, mem, nil, Config{
		ServerName:     "Survival",
		ServerURL:      "mc.example.org",
		ServerIconPath: "server-icon.png",
	})
	o.metrics = NewMetrics(reg)

	var hooked []*Report
	o.AfterPass(func(ctx context.Context, r *Report) error {
		hooked = append(hooked, r)
		return nil
	})
	o.AfterPass(func(ctx context.Context, r *Report) error {
		return errors.New("upload failed")
	})

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, hooked, 1)
	assert.Same(t, report, hooked[0])

	meta, err := schema.LoadMetadata(context.Background(), db)
	require.NoError(t, err)
	require.NotNil(t, meta.ServerName)
	assert.Equal(t, "Survival", *meta.ServerName)
	assert.Nil(t, meta.ServerDescription)
	assert.Equal(t, "mc.example.org", *meta.ServerURL)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, meta.ServerIcon)

	assert.Equal(t, float64(1), testutil.ToFloat64(o.metrics.passes.WithLabelValues(resultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.metrics.phaseTasks.WithLabelValues(phaseUpsert, "completed")))
	assert.Equal(t, float64(len(models.Categories)), testutil.ToFloat64(o.metrics.phaseTasks.WithLabelValues(phaseRanking, "completed")))
}

func TestRestore(t *testing.T) {
	db := setupTestDB(t)
	o := newTestOrchestrator(t, db, afero.NewMemMapFs(), nil, Config{})

	require.NoError(t, o.Restore(context.Background()))
	assert.Equal(t, NeverSynced, o.State().Snapshot().LastSyncDisplay)

	require.NoError(t, schema.CommitMetadata(context.Background(), db, models.SyncMetadata{LastUpdate: baseTime}))
	require.NoError(t, o.Restore(context.Background()))
	assert.Equal(t, "2024-05-01 12:00:00 UTC", o.State().Snapshot().LastSyncDisplay)
}

func TestRun_FatalWhenStoreClosed(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	o := newTestOrchestrator(t, db, afero.NewMemMapFs(), nil, Config{})
	_, err = o.Run(context.Background())
	require.Error(t, err)

	snap := o.State().Snapshot()
	assert.Equal(t, "Idle", snap.Status)
	assert.Equal(t, resultFailure, snap.LastResult)
	assert.NotEmpty(t, snap.LastError)
}
