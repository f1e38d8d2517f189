package config

import "time"

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultTokenLifetime is how long an access token stays valid.
	DefaultTokenLifetime = 24 * time.Hour

	// DefaultBcryptCost is the work factor for password hashes.
	DefaultBcryptCost = 12

	// ShutdownTimeout bounds graceful server shutdown.
	ShutdownTimeout = 10 * time.Second
)
