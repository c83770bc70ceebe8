package database

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverMariaDB  = "mariadb"
	DriverPostgres = "postgres"
)

// MemoryPath selects a private in-memory SQLite database.
const MemoryPath = ":memory:"

// Config holds configuration for the database connection.
type Config struct {
	// Driver is the database driver (sqlite, mysql, mariadb, postgres).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Path is the SQLite database file. Ignored by remote drivers.
	Path string `mapstructure:"path" default:"player-statistics.db"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port. Zero selects the driver's usual port.
	Port int `mapstructure:"port" default:"0"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name.
	Name string `mapstructure:"name" default:"player_statistics"`
	// SSLMode is passed to PostgreSQL as sslmode.
	SSLMode string `mapstructure:"ssl_mode" default:"disable"`
	// TimeoutSeconds bounds connection setup and the initial ping.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PoolSize is the maximum number of open connections.
	PoolSize int `mapstructure:"pool_size" default:"0"`
}

// IsLocal reports whether the configuration targets an embedded SQLite file.
func (c Config) IsLocal() bool {
	return c.Driver == DriverSQLite
}

// WithMinPool returns a copy whose pool holds at least n connections.
func (c Config) WithMinPool(n int) Config {
	if c.PoolSize < n {
		c.PoolSize = n
	}
	return c
}

func (c Config) port() int {
	if c.Port > 0 {
		return c.Port
	}
	if c.Driver == DriverPostgres {
		return 5432
	}
	return 3306
}
