package enrich

// Config holds configuration for nickname enrichment.
type Config struct {
	// Enabled runs the nickname phase of every pass.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// ProfileURL is the primary namespace profile endpoint; the UUID is appended.
	ProfileURL string `mapstructure:"profile_url" default:"https://api.minetools.eu/profile"`
	// GamertagURL is the bridge namespace gamertag endpoint; the numeric id is appended.
	GamertagURL string `mapstructure:"gamertag_url" default:"https://api.geysermc.org/v2/xbox/gamertag"`
	// TimeoutSeconds bounds a single lookup when the caller sets no deadline.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
