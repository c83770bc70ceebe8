package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"player-statistics/core/loader"
	"player-statistics/core/logger"
	"player-statistics/core/middleware/auth"
	"player-statistics/core/middleware/rayid"
	"player-statistics/feature/snapshot"
	"player-statistics/feature/statsync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync service",
	Long:  `Runs scheduled and file-triggered sync passes and serves the status and snapshot HTTP surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 1. Configuration, logger and store
		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.close()
		logg := rt.logger

		// 2. Metrics
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := statsync.NewMetrics(reg)

		// 3. Orchestrator
		exporter := rt.exporter()
		orch, err := rt.orchestrator(metrics, exporter)
		if err != nil {
			return err
		}
		if err := orch.Restore(ctx); err != nil {
			return err
		}
		logg.Info("Sync state restored", zap.String("last_sync", orch.State().Snapshot().LastSyncDisplay))

		// 4. Triggers
		var wg sync.WaitGroup
		scheduler := statsync.NewScheduler(orch, rt.cfg.Sync.InitialDelay(), rt.cfg.Sync.Interval(), logg)
		if scheduler.Enabled() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				scheduler.Run(ctx)
			}()
		} else {
			logg.Info("Scheduler disabled")
		}

		if rt.cfg.Sync.Watch {
			watcher := statsync.NewWatcher(orch, rt.cfg.Sync.StatsDir, rt.cfg.Sync.WatchDebounce(), logg)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := watcher.Run(ctx); err != nil {
					logg.Warn("Stats directory watcher stopped", zap.Error(err))
				}
			}()
		}

		// 5. HTTP surface
		var app *fiber.App
		if rt.cfg.Server.Enabled {
			app = fiber.New(fiber.Config{
				DisableStartupMessage: true,
			})

			// RayID first so every log line can be traced
			app.Use(rayid.New())
			app.Use(func(c *fiber.Ctx) error {
				l := logger.WithRayID(logg, c)
				l.Debug("Request started",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.String("ip", c.IP()),
				)
				err := c.Next()
				if err != nil {
					l.Error("Request error", zap.Error(err))
				}
				return err
			})

			app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

			// Reads are public; triggering a pass needs the key.
			app.Use(auth.New(auth.Config{
				ApiKey: rt.cfg.Server.ApiKey,
				Skip: func(c *fiber.Ctx) bool {
					return c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead
				},
			}))

			mgr := loader.NewManager(logg)
			mgr.Register(statsync.NewFeature(ctx, orch, logg))
			mgr.Register(snapshot.NewFeature(rt.db, exporter, logg))
			if err := mgr.LoadAll(app); err != nil {
				return err
			}

			go func() {
				logg.Info("Starting server", zap.String("address", rt.cfg.Server.Address()))
				if err := app.Listen(rt.cfg.Server.Address()); err != nil {
					logg.Error("Server stopped", zap.Error(err))
					stop()
				}
			}()
		}

		// 6. Graceful shutdown
		<-ctx.Done()
		logg.Info("Shutting down...")
		if app != nil {
			_ = app.ShutdownWithTimeout(10 * time.Second)
		}
		wg.Wait()
		orch.Wait()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
