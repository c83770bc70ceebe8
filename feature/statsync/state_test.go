package statsync

import (
	"errors"
	"sync"
	"testing"
	"time"

	"player-statistics/core/workerpool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Idle", StatusIdle.String())
	assert.Equal(t, "PopulatingHallOfFame", StatusPopulatingHallOfFame.String())
	assert.Equal(t, "Unknown", Status(42).String())
}

func TestState_Lifecycle(t *testing.T) {
	var s State

	snap := s.Snapshot()
	assert.Equal(t, "Idle", snap.Status)
	assert.False(t, snap.Running)
	assert.Nil(t, snap.LastSync)
	assert.Equal(t, NeverSynced, snap.LastSyncDisplay)

	require.True(t, s.begin())
	assert.False(t, s.begin(), "second begin must fail while running")

	s.enter(StatusSyncingData, 4)
	sink := progressSink{state: &s}
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Advance()
		}()
	}
	wg.Wait()

	snap = s.Snapshot()
	assert.Equal(t, "SyncingData", snap.Status)
	assert.True(t, snap.Running)
	assert.Equal(t, int64(3), snap.ProgressDone)
	assert.Equal(t, int64(4), snap.ProgressTotal)

	s.enter(StatusUpdatingPositions, 9)
	snap = s.Snapshot()
	assert.Zero(t, snap.ProgressDone)
	assert.Equal(t, int64(9), snap.ProgressTotal)

	synced := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.finish(synced, nil)
	snap = s.Snapshot()
	assert.Equal(t, "Idle", snap.Status)
	assert.Equal(t, "2024-01-02 03:04:05 UTC", snap.LastSyncDisplay)
	assert.Equal(t, resultSuccess, snap.LastResult)

	require.True(t, s.begin())
	s.finish(time.Time{}, errors.New("metadata commit failed"))
	snap = s.Snapshot()
	assert.Equal(t, "2024-01-02 03:04:05 UTC", snap.LastSyncDisplay, "failed pass keeps the last sync")
	assert.Equal(t, resultFailure, snap.LastResult)
	assert.Equal(t, "metadata commit failed", snap.LastError)
}

func TestState_ReadOnlyForReaders(t *testing.T) {
	o := &Orchestrator{}

	_, writable := any(o.State()).(workerpool.Progress)
	assert.False(t, writable, "status readers must not be able to advance progress")

	require.True(t, o.state.begin())
	o.state.enter(StatusFetchingNicks, 2)
	o.progress().Advance()
	assert.Equal(t, int64(1), o.State().Snapshot().ProgressDone)
}

func TestConfig_Durations(t *testing.T) {
	cfg := Config{IntervalMinutes: 5, InitialDelaySeconds: 60, UpsertTimeoutSeconds: -1}
	assert.Equal(t, 5*time.Minute, cfg.Interval())
	assert.Equal(t, time.Minute, cfg.InitialDelay())
	assert.Zero(t, cfg.UpsertTimeout())
	assert.Zero(t, cfg.RankTimeout())
}
