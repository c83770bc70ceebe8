package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnsupportedDriver is returned for drivers outside the supported set.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

const defaultPoolSize = 10

// sqlitePragmas are applied to every pooled SQLite connection through the DSN.
var sqlitePragmas = []struct {
	name  string
	value string
}{
	{"_journal_mode", "WAL"},
	{"_synchronous", "NORMAL"},
	{"_busy_timeout", "5000"},
	{"_foreign_keys", "on"},
}

// Connect opens the configured database and verifies it with a ping.
func Connect(cfg Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	pool := cfg.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}

	if cfg.IsLocal() && cfg.Path == MemoryPath {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(pool)
		sqlDB.SetMaxIdleConns(min(pool, defaultPoolSize))
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverMySQL, DriverMariaDB:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
}

// DSN builds the connection string for the configured driver.
func DSN(cfg Config) (string, error) {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	switch cfg.Driver {
	case DriverSQLite:
		params := make([]string, 0, len(sqlitePragmas))
		for _, p := range sqlitePragmas {
			if cfg.Path == MemoryPath && p.name == "_journal_mode" {
				continue
			}
			params = append(params, p.name+"="+p.value)
		}
		path := cfg.Path
		if path == MemoryPath {
			path = ":memory:"
		}
		return "file:" + path + "?" + strings.Join(params, "&"), nil

	case DriverMySQL, DriverMariaDB:
		// clientFoundRows makes RowsAffected count matched rows, not changed ones.
		userInfo := url.UserPassword(cfg.User, cfg.Password).String()
		return fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
			userInfo, cfg.Host, cfg.port(), cfg.Name, timeout, timeout, timeout), nil

	case DriverPostgres:
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.port()),
			Path:   "/" + cfg.Name,
		}
		q := url.Values{}
		q.Set("sslmode", sslMode)
		q.Set("connect_timeout", fmt.Sprintf("%d", timeout))
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
}
