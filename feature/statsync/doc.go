// Package statsync drives the player statistics sync.
//
// A pass moves through Idle, Initializing, SyncingData, FetchingNicks,
// UpdatingPositions and PopulatingHallOfFame, then back to Idle. Only one pass
// runs at a time: Run and Start fail with ErrAlreadyRunning while the state is
// not Idle. Each worker phase runs inside its own time budget and a phase that
// runs out of time does not stop the pass. Schema bootstrap, metadata load and
// metadata commit are the only failures that abort it.
//
// The Scheduler and the Watcher trigger passes; the HTTP feature reports the
// state and accepts manual triggers.
package statsync
