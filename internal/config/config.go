// Package config provides configuration management.
//
// Configuration is loaded from an HCL or JSON file, with a handful of
// environment overrides for deployment secrets.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"catalog-sync/internal/errors"
	"catalog-sync/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Server contains HTTP server settings
	Server ServerConfig `json:"server" hcl:"server,block"`

	// Database contains persistence settings
	Database DatabaseConfig `json:"database" hcl:"database,block"`

	// Provider contains payment-provider client settings
	Provider ProviderConfig `json:"provider" hcl:"provider,block"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" hcl:"logging,block"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" hcl:"addr,optional"`

	// ReadTimeoutSeconds bounds request reads
	ReadTimeoutSeconds int `json:"read_timeout_seconds" hcl:"read_timeout_seconds,optional"`

	// WriteTimeoutSeconds bounds response writes
	WriteTimeoutSeconds int `json:"write_timeout_seconds" hcl:"write_timeout_seconds,optional"`
}

// DatabaseConfig contains persistence settings
type DatabaseConfig struct {
	// DSN is the Postgres connection string
	DSN string `json:"dsn" hcl:"dsn,optional"`

	// MaxOpenConns caps the connection pool
	MaxOpenConns int `json:"max_open_conns" hcl:"max_open_conns,optional"`

	// LogQueries enables SQL statement logging
	LogQueries bool `json:"log_queries" hcl:"log_queries,optional"`
}

// ProviderConfig contains payment-provider client settings
type ProviderConfig struct {
	// BaseURL is the provider API base URL
	BaseURL string `json:"base_url" hcl:"base_url,optional"`

	// TimeoutSeconds bounds every outbound call
	TimeoutSeconds int `json:"timeout_seconds" hcl:"timeout_seconds,optional"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 120,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
		},
		Provider: ProviderConfig{
			BaseURL:        "https://api.stripe.com",
			TimeoutSeconds: 30,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads configuration from a file, applying defaults for anything
// the file does not set. The format is picked by extension: .hcl or .json.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
			return nil, errors.Wrapf(errors.TypeConfig, err, "failed to parse config file %s", path)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeConfig, err, "failed to read config file %s", path)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(errors.TypeConfig, err, "failed to parse config file %s", path)
		}
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported config format: %s", path)
	}

	applyEnv(cfg)
	return cfg, nil
}

// FromEnv returns the default configuration with environment overrides
// applied; used when no config file is given.
func FromEnv() *Config {
	cfg := DefaultConfig()
	applyEnv(cfg)
	return cfg
}

// applyEnv applies environment overrides for deployment secrets
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("STRIPE_API_BASE"); v != "" {
		cfg.Provider.BaseURL = v
	}
}

var (
	mu      sync.RWMutex
	current = DefaultConfig()
)

// Get returns the current configuration
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the current configuration
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}
