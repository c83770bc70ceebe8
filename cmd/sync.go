package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"player-statistics/feature/statsync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var forceFullFlag bool
var syncJSONFlag bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass and exit",
	Long:  `Runs a single pass: upserts changed records, fetches missing nicknames, recomputes rankings and the hall of fame, then commits the pass time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := setup()
		if err != nil {
			return err
		}
		defer rt.close()

		orch, err := rt.orchestrator(nil, rt.exporter())
		if err != nil {
			return err
		}

		var opts []statsync.RunOption
		if forceFullFlag {
			opts = append(opts, statsync.ForceFull())
		}

		report, err := orch.Run(ctx, opts...)
		if err != nil {
			return err
		}

		if syncJSONFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		rt.logger.Info("Sync complete",
			zap.String("pass_id", report.PassID),
			zap.Bool("committed", report.Committed),
			zap.Bool("source_missing", report.SourceMissing),
			zap.Int("upserted", report.Upserts.Completed),
			zap.Int("upsert_failed", report.Upserts.Failed),
			zap.Int("nicknames", report.Nicknames.Completed),
			zap.Int("categories_ranked", report.Ranking.Completed),
			zap.Int("hall_of_fame", report.HallOfFame),
			zap.Int64("duration_ms", report.DurationMS),
		)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&forceFullFlag, "force-full", false, "Sync every record regardless of the last pass time")
	syncCmd.Flags().BoolVar(&syncJSONFlag, "json", false, "Print the pass report as JSON")
	RootCmd.AddCommand(syncCmd)
}
