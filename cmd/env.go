package cmd

import (
	"context"
	"fmt"
	"os"

	"player-statistics/core/config"
	"player-statistics/core/database"
	"player-statistics/core/logger"
	"player-statistics/core/storage"
	"player-statistics/core/workerpool"
	"player-statistics/feature/snapshot"
	"player-statistics/feature/statsync"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/enrich"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env is the state shared by every command.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	dialect dialect.Dialect
}

// setup loads the configuration, installs the logger and connects the store.
func setup() (*env, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	d, err := dialect.For(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	// One connection per worker plus headroom for the status surface.
	dbCfg := cfg.Database.WithMinPool(workerpool.Threads(cfg.Sync.Threads) + 2)
	db, err := database.Connect(dbCfg)
	if err != nil {
		return nil, err
	}
	logg.Info("Connected to statistics store", zap.String("driver", d.Name()))

	return &env{cfg: cfg, logger: logg, db: db, dialect: d}, nil
}

func (rt *env) close() {
	if sqlDB, err := rt.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rt.logger.Sync()
}

// orchestrator builds the pass orchestrator, with snapshot publishing when
// storage is enabled.
func (rt *env) orchestrator(metrics *statsync.Metrics, exporter *snapshot.Exporter) (*statsync.Orchestrator, error) {
	var lookup enrich.Lookup
	if rt.cfg.Nickname.Enabled {
		lookup = enrich.NewClient(rt.cfg.Nickname)
	}

	orch, err := statsync.NewOrchestrator(rt.cfg.Sync, rt.db, rt.dialect, afero.NewOsFs(), lookup, metrics, rt.logger)
	if err != nil {
		return nil, err
	}

	if rt.cfg.Storage.Enabled {
		client, err := storage.NewClient(rt.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		pub := snapshot.NewPublisher(client, rt.cfg.Storage, exporter, rt.logger)
		orch.AfterPass(func(ctx context.Context, report *statsync.Report) error {
			return pub.Publish(ctx, report.PassID)
		})
	}
	return orch, nil
}

func (rt *env) exporter() *snapshot.Exporter {
	return snapshot.NewExporter(rt.db, rt.cfg.Database.IsLocal(), afero.NewOsFs(), os.TempDir())
}
