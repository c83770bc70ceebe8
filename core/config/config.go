package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"player-statistics/core/database"
	"player-statistics/core/logger"
	"player-statistics/core/server"
	"player-statistics/core/storage"
	"player-statistics/feature/statsync"
	"player-statistics/feature/statsync/dialect"
	"player-statistics/feature/statsync/enrich"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Database selects and parameterizes the statistics store.
	Database database.Config `mapstructure:"database"`
	// Sync holds the pass schedule, worker and source settings.
	Sync statsync.Config `mapstructure:"sync"`
	// Nickname configures the display name lookup service.
	Nickname enrich.Config `mapstructure:"nickname"`
	// Storage holds configuration for snapshot publishing (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SYNC_STATS_DIR -> sync.stats_dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations no pass could run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := dialect.For(c.Database.Driver); err != nil {
		errs = append(errs, err)
	}
	if c.Database.IsLocal() && strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required for sqlite"))
	}
	if strings.TrimSpace(c.Sync.StatsDir) == "" {
		errs = append(errs, errors.New("sync.stats_dir is required"))
	}
	if c.Storage.Enabled && !c.Database.IsLocal() {
		errs = append(errs, fmt.Errorf("storage publishing requires the %s driver", database.DriverSQLite))
	}
	return errors.Join(errs...)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
