// Package config loads the application configuration.
//
// Values come from the environment, optionally overloaded by a .env file.
// Nested keys map to SECTION_KEY variables (sync.stats_dir is SYNC_STATS_DIR)
// and defaults are read from the `default` struct tags of each section:
//   - Server: HTTP surface (port, API key)
//   - Database: driver and connection of the statistics store
//   - Sync: stats directory, schedule, worker counts and phase budgets
//   - Nickname: display name lookup endpoints
//   - Storage: MinIO/S3 snapshot publishing
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.StatsDir)
package config
