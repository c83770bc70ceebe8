// Package server holds the HTTP server configuration.
//
// The main application entry point starts Fiber; this package only defines the
// settings it reads: whether the surface is enabled, the listen address and
// the optional API key guarding the sync control endpoints.
package server
