package server

import (
	"net"
	"strings"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Enabled starts the HTTP surface alongside the sync service.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Host is the interface to bind; empty binds all interfaces.
	Host string `mapstructure:"host" default:""`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey protects the sync control endpoints. Empty disables the check.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Address returns the listen address for Fiber.
func (c Config) Address() string {
	port := strings.TrimPrefix(c.Port, ":")
	if port == "" {
		port = "8080"
	}
	return net.JoinHostPort(c.Host, port)
}

// AuthEnabled reports whether requests must carry the API key.
func (c Config) AuthEnabled() bool {
	return strings.TrimSpace(c.ApiKey) != ""
}
