package statsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"player-statistics/core/logger"
	"player-statistics/core/workerpool"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/enrich"
	"player-statistics/feature/statsync/halloffame"
	"player-statistics/feature/statsync/identity"
	"player-statistics/feature/statsync/models"
	"player-statistics/feature/statsync/ranking"
	"player-statistics/feature/statsync/schema"
	"player-statistics/feature/statsync/source"
	"player-statistics/feature/statsync/upsert"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrAlreadyRunning is returned when a pass is requested while another is active.
var ErrAlreadyRunning = errors.New("sync pass already running")

// Hook runs after a pass committed its metadata. Hook errors are logged only.
type Hook func(ctx context.Context, report *Report) error

// PhaseReport summarizes one worker pool phase.
type PhaseReport struct {
	Total     int  `json:"total"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Cancelled int  `json:"cancelled"`
	TimedOut  bool `json:"timed_out"`
	Skipped   bool `json:"skipped,omitempty"`
}

func phaseReport(total int, res workerpool.Result) PhaseReport {
	return PhaseReport{
		Total:     total,
		Completed: res.Completed,
		Failed:    res.Failed,
		Cancelled: res.Cancelled,
		TimedOut:  res.TimedOut,
	}
}

// Report describes one pass.
type Report struct {
	PassID    string    `json:"pass_id"`
	StartedAt time.Time `json:"started_at"`
	// LastUpdate is the committed watermark. It stays at the previous value
	// while WatermarkHeld is set.
	LastUpdate    time.Time   `json:"last_update"`
	DurationMS    int64       `json:"duration_ms"`
	SourceMissing bool        `json:"source_missing,omitempty"`
	Committed     bool        `json:"committed"`
	// Incomplete is set when some records failed in a way a later pass may fix.
	Incomplete    bool        `json:"incomplete,omitempty"`
	WatermarkHeld bool        `json:"watermark_held,omitempty"`
	Upserts       PhaseReport `json:"upserts"`
	Nicknames     PhaseReport `json:"nicknames"`
	Ranking       PhaseReport `json:"ranking"`
	HallOfFame    int         `json:"hall_of_fame"`
}

// RunOption customizes one pass.
type RunOption func(*runOptions)

type runOptions struct {
	forceFull bool
}

// ForceFull syncs every record regardless of the stored last update.
func ForceFull() RunOption {
	return func(o *runOptions) { o.forceFull = true }
}

// Orchestrator drives the sync state machine. At most one pass runs at a time.
type Orchestrator struct {
	cfg      Config
	db       *gorm.DB
	dialect  dialect.Dialect
	fs       afero.Fs
	scanner  *source.Scanner
	resolver *identity.Resolver
	lookup   enrich.Lookup
	threads  int
	metrics  *Metrics
	logger   *zap.Logger
	state    State
	hooks    []Hook
	wg       sync.WaitGroup
	// held counts consecutive passes that kept the last update back.
	held int
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator. A nil lookup disables nickname
// enrichment and a nil metrics records nothing.
func NewOrchestrator(cfg Config, db *gorm.DB, d dialect.Dialect, fs afero.Fs, lookup enrich.Lookup, metrics *Metrics, logger *zap.Logger) (*Orchestrator, error) {
	resolver, err := identity.NewResolver(db, cfg.IdentityCacheSize)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:      cfg,
		db:       db,
		dialect:  d,
		fs:       fs,
		scanner:  source.NewScanner(fs, cfg.StatsDir),
		resolver: resolver,
		lookup:   lookup,
		threads:  workerpool.Threads(cfg.Threads),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// State returns the observable state. Readers cannot change it.
func (o *Orchestrator) State() *State {
	return &o.state
}

func (o *Orchestrator) progress() workerpool.Progress {
	return progressSink{state: &o.state}
}

// AfterPass registers a hook. It must be called before the first pass.
func (o *Orchestrator) AfterPass(h Hook) {
	o.hooks = append(o.hooks, h)
}

// Restore bootstraps the schema and loads the last committed pass time.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if err := schema.Bootstrap(ctx, o.db, o.dialect); err != nil {
		return err
	}
	meta, err := schema.LoadMetadata(ctx, o.db)
	if err != nil {
		return err
	}
	if meta.LastUpdate.After(schema.Epoch) {
		o.state.restore(meta.LastUpdate)
	}
	return nil
}

// Run executes one pass and blocks until it ends.
func (o *Orchestrator) Run(ctx context.Context, opts ...RunOption) (*Report, error) {
	if !o.state.begin() {
		return nil, ErrAlreadyRunning
	}
	return o.execute(ctx, opts)
}

// Start executes one pass in the background. The pass is rejected
// synchronously when another one is active.
func (o *Orchestrator) Start(ctx context.Context, opts ...RunOption) (<-chan Outcome, error) {
	if !o.state.begin() {
		return nil, ErrAlreadyRunning
	}
	done := make(chan Outcome, 1)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		report, err := o.execute(ctx, opts)
		done <- Outcome{Report: report, Err: err}
		close(done)
	}()
	return done, nil
}

// Outcome is the result of a background pass.
type Outcome struct {
	Report *Report
	Err    error
}

// Wait blocks until background passes return.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) execute(ctx context.Context, opts []RunOption) (report *Report, err error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	passID, err := gonanoid.New()
	if err != nil {
		o.state.finish(time.Time{}, err)
		return nil, fmt.Errorf("failed to generate pass id: %w", err)
	}
	log := logger.WithPass(o.logger, passID)

	start := o.now().UTC().Truncate(time.Microsecond)
	report = &Report{PassID: passID, StartedAt: start}
	log.Info("Sync pass started", zap.Bool("force_full", ro.forceFull))

	defer func() {
		report.DurationMS = time.Since(start).Milliseconds()
		switch {
		case err != nil:
			o.metrics.observePass(resultFailure, time.Time{})
			o.state.finish(time.Time{}, err)
			log.Error("Sync pass failed", zap.Error(err), zap.Int64("duration_ms", report.DurationMS))
		case !report.Committed:
			o.metrics.observePass(resultSkipped, time.Time{})
			o.state.finish(time.Time{}, nil)
		default:
			o.metrics.observePass(resultSuccess, report.StartedAt)
			o.runHooks(ctx, report, log)
			o.state.finish(report.StartedAt, nil)
			log.Info("Sync pass finished",
				zap.Int64("duration_ms", report.DurationMS),
				zap.Int("upserted", report.Upserts.Completed),
				zap.Int("nicknames", report.Nicknames.Completed),
				zap.Int("hall_of_fame", report.HallOfFame),
				zap.Bool("incomplete", report.Incomplete),
				zap.Bool("watermark_held", report.WatermarkHeld),
			)
		}
	}()

	// Initializing
	phaseStart := time.Now()
	if err := schema.Bootstrap(ctx, o.db, o.dialect); err != nil {
		return report, err
	}
	meta, err := schema.LoadMetadata(ctx, o.db)
	if err != nil {
		return report, err
	}
	since := meta.LastUpdate
	if ro.forceFull {
		since = schema.Epoch
		o.resolver.Forget()
	}

	entries, err := o.scanner.Scan(since)
	if err != nil {
		report.SourceMissing = errors.Is(err, source.ErrSourceMissing)
		log.Warn("Record source unavailable, pass skipped", zap.String("dir", o.scanner.Dir()), zap.Error(err))
		return report, nil
	}
	o.metrics.observePhase(phaseInitialize, time.Since(phaseStart))
	log.Debug("Changed records found", zap.Int("records", len(entries)), zap.Time("since", since))

	// SyncingData
	report.Upserts, report.Incomplete = o.syncData(ctx, entries, log)

	// FetchingNicks
	report.Nicknames = o.fetchNicks(ctx, log)

	// UpdatingPositions
	report.Ranking = o.updatePositions(ctx, log)

	// PopulatingHallOfFame
	report.HallOfFame = o.populateHallOfFame(ctx, log)

	// Commit
	phaseStart = time.Now()
	report.WatermarkHeld = o.holdWatermark(report.Incomplete, log)
	report.LastUpdate = start
	if report.WatermarkHeld {
		report.LastUpdate = meta.LastUpdate
	}
	if err := schema.CommitMetadata(ctx, o.db, o.metadata(report.LastUpdate, log)); err != nil {
		return report, err
	}
	report.Committed = true
	o.metrics.observePhase(phaseCommit, time.Since(phaseStart))
	return report, nil
}

func (o *Orchestrator) syncData(ctx context.Context, entries []source.Entry, log *zap.Logger) (PhaseReport, bool) {
	o.state.enter(StatusSyncingData, len(entries))
	worker := upsert.NewWorker(o.db, o.dialect, o.scanner, o.resolver, o.cfg.BatchSize, log)

	var retryable atomic.Int64
	pool := workerpool.New(o.threads, o.cfg.UpsertTimeout()).OnError(func(err error) {
		if !upsert.Permanent(err) {
			retryable.Add(1)
		}
	})
	res := pool.Run(ctx, worker.Tasks(entries, o.progress()))
	o.metrics.observePool(phaseUpsert, res)
	logPool(log, "Stat upsert finished", len(entries), res)

	return phaseReport(len(entries), res), res.Cancelled > 0 || retryable.Load() > 0
}

// holdWatermark decides whether the last update stays back so records that
// failed for retryable reasons are scanned again. After MaxHeldPasses
// consecutive holds it advances anyway.
func (o *Orchestrator) holdWatermark(incomplete bool, log *zap.Logger) bool {
	if !incomplete {
		o.held = 0
		return false
	}
	if o.held >= o.cfg.MaxHeldPasses {
		log.Warn("Records kept failing, last update advanced",
			zap.Int("held_passes", o.held),
			zap.Int("max_held_passes", o.cfg.MaxHeldPasses),
		)
		o.held = 0
		return false
	}
	o.held++
	log.Warn("Some records were not written, last update kept", zap.Int("held_passes", o.held))
	return true
}

func (o *Orchestrator) fetchNicks(ctx context.Context, log *zap.Logger) PhaseReport {
	if o.lookup == nil {
		o.state.enter(StatusFetchingNicks, 0)
		return PhaseReport{Skipped: true}
	}

	enricher := enrich.NewEnricher(o.db, o.lookup, log)
	pending, err := enricher.Pending(ctx)
	if err != nil {
		o.state.enter(StatusFetchingNicks, 0)
		log.Warn("Failed to list players without nickname", zap.Error(err))
		return PhaseReport{Skipped: true}
	}

	o.state.enter(StatusFetchingNicks, len(pending))
	res := workerpool.New(o.threads, o.cfg.NickTimeout()).Run(ctx, enricher.Tasks(pending, o.progress()))
	o.metrics.observePool(phaseNicknames, res)
	logPool(log, "Nickname enrichment finished", len(pending), res)
	return phaseReport(len(pending), res)
}

func (o *Orchestrator) updatePositions(ctx context.Context, log *zap.Logger) PhaseReport {
	o.state.enter(StatusUpdatingPositions, len(models.Categories))
	engine := ranking.NewEngine(o.db, o.dialect, o.threads, log)

	res := workerpool.New(engine.PoolSize(), o.cfg.RankTimeout()).Run(ctx, engine.Tasks(o.progress()))
	o.metrics.observePool(phaseRanking, res)
	logPool(log, "Ranking finished", len(models.Categories), res)
	return phaseReport(len(models.Categories), res)
}

func (o *Orchestrator) populateHallOfFame(ctx context.Context, log *zap.Logger) int {
	o.state.enter(StatusPopulatingHallOfFame, 1)
	start := time.Now()

	n, err := halloffame.NewAggregator(o.db, o.dialect, o.cfg.BatchSize, log).Rebuild(ctx)
	o.metrics.observePhase(phaseHallOfFame, time.Since(start))
	if err != nil {
		log.Error("Hall of fame rebuild failed", zap.Error(err))
		return 0
	}
	o.state.advance()
	return n
}

func (o *Orchestrator) metadata(lastUpdate time.Time, log *zap.Logger) models.SyncMetadata {
	meta := models.SyncMetadata{
		LastUpdate:        lastUpdate,
		ServerName:        optional(o.cfg.ServerName),
		ServerDescription: optional(o.cfg.ServerDescription),
		ServerURL:         optional(o.cfg.ServerURL),
	}
	if o.cfg.ServerIconPath != "" {
		icon, err := afero.ReadFile(o.fs, o.cfg.ServerIconPath)
		if err != nil {
			log.Warn("Failed to read server icon", zap.String("path", o.cfg.ServerIconPath), zap.Error(err))
		} else {
			meta.ServerIcon = icon
		}
	}
	return meta
}

func (o *Orchestrator) runHooks(ctx context.Context, report *Report, log *zap.Logger) {
	for _, h := range o.hooks {
		if err := h(ctx, report); err != nil {
			log.Warn("After pass hook failed", zap.Error(err))
		}
	}
}

func logPool(log *zap.Logger, msg string, total int, res workerpool.Result) {
	fields := []zap.Field{
		zap.Int("total", total),
		zap.Int("completed", res.Completed),
		zap.Int("failed", res.Failed),
		zap.Int("cancelled", res.Cancelled),
		zap.Duration("elapsed", res.Elapsed),
	}
	if res.TimedOut {
		log.Warn(msg+" with timeout", fields...)
		return
	}
	log.Info(msg, fields...)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
