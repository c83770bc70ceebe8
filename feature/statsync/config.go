package statsync

import "time"

// Config holds the sync section of the configuration.
type Config struct {
	// StatsDir is the directory holding one <uuid>.json record per player.
	StatsDir string `mapstructure:"stats_dir" default:"world/stats"`
	// Threads is the worker count per phase. Zero uses all cores, negative values leave that many free.
	Threads int `mapstructure:"threads" default:"0"`
	// IntervalMinutes between scheduled passes. Zero or less disables the scheduler.
	IntervalMinutes int `mapstructure:"interval_minutes" default:"5"`
	// InitialDelaySeconds before the first scheduled pass.
	InitialDelaySeconds int `mapstructure:"initial_delay_seconds" default:"60"`
	// Phase time budgets.
	UpsertTimeoutSeconds int `mapstructure:"upsert_timeout_seconds" default:"60"`
	NickTimeoutSeconds   int `mapstructure:"nick_timeout_seconds" default:"180"`
	RankTimeoutSeconds   int `mapstructure:"rank_timeout_seconds" default:"180"`
	// BatchSize caps the rows of one upsert or hall of fame insert.
	BatchSize int `mapstructure:"batch_size" default:"500"`
	// MaxHeldPasses is how many consecutive passes may keep the last update
	// back after retryable upsert failures. Zero always advances it.
	MaxHeldPasses int `mapstructure:"max_held_passes" default:"3"`
	// IdentityCacheSize is the number of uuid to id mappings kept in memory.
	IdentityCacheSize int `mapstructure:"identity_cache_size" default:"4096"`
	// Watch triggers a pass when the stats directory changes.
	Watch                bool `mapstructure:"watch" default:"false"`
	WatchDebounceSeconds int  `mapstructure:"watch_debounce_seconds" default:"10"`

	// Server descriptor stored with every committed pass.
	ServerName        string `mapstructure:"server_name" default:""`
	ServerDescription string `mapstructure:"server_description" default:""`
	ServerURL         string `mapstructure:"server_url" default:""`
	ServerIconPath    string `mapstructure:"server_icon_path" default:""`
}

func (c Config) Interval() time.Duration      { return time.Duration(c.IntervalMinutes) * time.Minute }
func (c Config) InitialDelay() time.Duration  { return seconds(c.InitialDelaySeconds) }
func (c Config) UpsertTimeout() time.Duration { return seconds(c.UpsertTimeoutSeconds) }
func (c Config) NickTimeout() time.Duration   { return seconds(c.NickTimeoutSeconds) }
func (c Config) RankTimeout() time.Duration   { return seconds(c.RankTimeoutSeconds) }
func (c Config) WatchDebounce() time.Duration { return seconds(c.WatchDebounceSeconds) }

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
