// Package config defines service configuration structures and loading hooks.
package config

import (
	advisor "github.com/okian/crema/internal/app"
)

// Store backend names accepted in StoreBackend.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the durable store: memory, file, or postgres.
	StoreBackend string `koanf:"store_backend"`

	// StorePath locates the file-backed store when StoreBackend is "file".
	StorePath string `koanf:"store_path"`

	// PostgresDSN is the connection string when StoreBackend is "postgres".
	PostgresDSN string `koanf:"postgres_dsn"`

	// Advisor holds the default optimizer tunables; a persisted
	// configuration record takes precedence once one exists.
	Advisor advisor.Config `koanf:"advisor"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9090",
		StoreBackend: BackendFile,
		StorePath:    "crema-state.json",
		Advisor:      advisor.DefaultConfig(),
	}
}
