package statsync

import (
	"sync"
	"sync/atomic"
	"time"
)

// Status is the phase of the sync state machine.
type Status int32

const (
	StatusIdle Status = iota
	StatusInitializing
	StatusSyncingData
	StatusFetchingNicks
	StatusUpdatingPositions
	StatusPopulatingHallOfFame
)

var statusNames = [...]string{
	StatusIdle:                 "Idle",
	StatusInitializing:         "Initializing",
	StatusSyncingData:          "SyncingData",
	StatusFetchingNicks:        "FetchingNicks",
	StatusUpdatingPositions:    "UpdatingPositions",
	StatusPopulatingHallOfFame: "PopulatingHallOfFame",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Unknown"
	}
	return statusNames[s]
}

// NeverSynced is the display value before the first committed pass.
const NeverSynced = "Never"

// DisplayLayout formats the last sync time for status readers.
const DisplayLayout = "2006-01-02 15:04:05 MST"

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Status          string     `json:"status"`
	Running         bool       `json:"running"`
	LastSync        *time.Time `json:"last_sync,omitempty"`
	LastSyncDisplay string     `json:"last_sync_display"`
	ProgressDone    int64      `json:"progress_done"`
	ProgressTotal   int64      `json:"progress_total"`
	LastResult      string     `json:"last_result,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
}

// State is the observable state of the orchestrator. Its exported methods
// only read; the orchestrator owns every transition and hands phase workers a
// progress sink.
type State struct {
	status atomic.Int32
	done   atomic.Int64
	total  atomic.Int64

	mu         sync.RWMutex
	lastSync   time.Time
	lastResult string
	lastError  string
}

// Status returns the current phase.
func (s *State) Status() Status {
	return Status(s.status.Load())
}

// Running reports whether a pass is active.
func (s *State) Running() bool {
	return s.Status() != StatusIdle
}

// Snapshot copies the state for readers.
func (s *State) Snapshot() Snapshot {
	st := s.Status()
	snap := Snapshot{
		Status:          st.String(),
		Running:         st != StatusIdle,
		LastSyncDisplay: NeverSynced,
		ProgressDone:    s.done.Load(),
		ProgressTotal:   s.total.Load(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.lastSync.IsZero() {
		t := s.lastSync
		snap.LastSync = &t
		snap.LastSyncDisplay = t.UTC().Format(DisplayLayout)
	}
	snap.LastResult = s.lastResult
	snap.LastError = s.lastError
	return snap
}

// begin moves Idle to Initializing. It fails when a pass is active.
func (s *State) begin() bool {
	if !s.status.CompareAndSwap(int32(StatusIdle), int32(StatusInitializing)) {
		return false
	}
	s.done.Store(0)
	s.total.Store(0)
	return true
}

// advance counts one completed unit of the current phase.
func (s *State) advance() {
	s.done.Add(1)
}

// progressSink is the write side of State given to phase workers.
type progressSink struct {
	state *State
}

func (p progressSink) Advance() {
	p.state.advance()
}

// enter starts a phase and resets the progress pair.
func (s *State) enter(status Status, total int) {
	s.done.Store(0)
	s.total.Store(int64(total))
	s.status.Store(int32(status))
}

// finish records the outcome and returns to Idle. A zero synced time keeps
// the previous one.
func (s *State) finish(synced time.Time, err error) {
	s.mu.Lock()
	if !synced.IsZero() {
		s.lastSync = synced
	}
	if err != nil {
		s.lastResult = resultFailure
		s.lastError = err.Error()
	} else {
		s.lastResult = resultSuccess
		s.lastError = ""
	}
	s.mu.Unlock()

	s.status.Store(int32(StatusIdle))
}

func (s *State) restore(synced time.Time) {
	s.mu.Lock()
	s.lastSync = synced
	s.mu.Unlock()
}
