package storage

// Config holds configuration for the storage provider.
type Config struct {
	// Enabled turns on snapshot publishing after every committed pass.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket receives the published snapshots.
	Bucket string `mapstructure:"bucket" default:"player-statistics"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// SnapshotKey is the object name of the latest snapshot.
	SnapshotKey string `mapstructure:"snapshot_key" default:"player-statistics.db"`
	// Retain is how many timestamped snapshot copies are kept. Zero keeps only the latest.
	Retain int `mapstructure:"retain" default:"5"`
}
