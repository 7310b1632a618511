// Package config provides configuration management for the debug client.
//
// Configuration controls:
//   - Backend endpoints: run creation, breakpoint suggestion
//   - Safety limits: breakpoint capacity, handshake timeout
//   - Local state: path of the persisted breakpoint database
//   - Logging: level and format
//
// Configuration can be loaded from a JSON file or use sensible defaults.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config holds the client configuration.
type Config struct {
	// BackendURL is the base URL of the execution backend.
	BackendURL string `json:"backendUrl"`

	// AdvisorEnabled controls whether the auto-breakpoint advisor may be
	// invoked.
	AdvisorEnabled bool `json:"advisorEnabled"`

	// MaxBreakpoints caps the breakpoint store.
	MaxBreakpoints int `json:"maxBreakpoints"`

	// HandshakeTimeout bounds the session-creation HTTP request.
	HandshakeTimeout time.Duration `json:"handshakeTimeout"`

	// StatePath is the path of the local state database. Empty selects the
	// per-user default.
	StatePath string `json:"statePath"`

	// LogLevel sets the minimum log level (debug, info, warn, error).
	LogLevel string `json:"logLevel"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `json:"logFormat"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BackendURL:       "http://127.0.0.1:8080",
		AdvisorEnabled:   true,
		MaxBreakpoints:   100,
		HandshakeTimeout: 15 * time.Second,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// LoadConfig loads configuration from a JSON file, layering it over the
// defaults. An empty path returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RunURL returns the session-creation endpoint.
func (c *Config) RunURL() string {
	return c.BackendURL + "/run"
}

// AdvisorURL returns the breakpoint suggestion endpoint.
func (c *Config) AdvisorURL() string {
	return c.BackendURL + "/breakpoints/auto"
}
