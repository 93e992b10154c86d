// Package config loads Quarry configuration from file, environment
// variables, and flags.
package config

import (
	"fmt"
	"strings"

	"github.com/quarrylabs/quarry/internal/connector"
)

// Default configuration values.
const (
	DefaultConfigFile  = "quarry.yaml"
	DefaultConfigAlt   = "quarry.yml"
	DefaultRelayAddr   = ":1234"
	DefaultRoom        = "default"
	DefaultStorePath   = "quarry.db"
	DefaultDataDir     = "data"
	DefaultDebounceMS  = 400
	DefaultLogLevel    = "info"
	DefaultDatabase    = ":memory:"
	DefaultDatabaseTyp = "duckdb"
)

// DatabaseConfig holds the analytical database configuration.
type DatabaseConfig struct {
	Type string `koanf:"type"` // duckdb, postgres

	// Path is the database file for file-based engines. ":memory:" keeps
	// everything in-process.
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Options contains additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// ToConnectorConfig converts the database section into a connector config.
func (d DatabaseConfig) ToConnectorConfig() connector.Config {
	return connector.Config{
		Type:     d.Type,
		Path:     d.Path,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		Username: d.User,
		Password: d.Password,
		Options:  d.Options,
	}
}

// Validate checks that the database section names a registered connector.
func (d DatabaseConfig) Validate() error {
	if d.Type == "" {
		return fmt.Errorf("database type is required")
	}
	if !connector.IsRegistered(strings.ToLower(d.Type)) {
		return &connector.UnknownConnectorError{
			Type:      d.Type,
			Available: connector.ListConnectors(),
		}
	}
	return nil
}

// RelayConfig holds the broadcast relay configuration.
type RelayConfig struct {
	Addr        string `koanf:"addr"`
	DefaultRoom string `koanf:"default_room"`
}

// CollabConfig holds the collaboration client configuration.
type CollabConfig struct {
	URL        string `koanf:"url"`
	Room       string `koanf:"room"`
	DebounceMS int    `koanf:"debounce_ms"`
}

// StoreConfig holds the canvas persistence configuration.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// DataConfig holds the data directory configuration.
type DataConfig struct {
	Dir    string `koanf:"dir"`
	Sample bool   `koanf:"sample"`
}

// Config is the full Quarry configuration.
type Config struct {
	LogLevel string `koanf:"log_level"`
	Verbose  bool   `koanf:"verbose"`

	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Relay    RelayConfig    `koanf:"relay"`
	Collab   CollabConfig   `koanf:"collab"`
	Data     DataConfig     `koanf:"data"`
}
