// Package connector provides pluggable database connectors so query cells
// can run against engines beyond the embedded analytical database.
package connector

import (
	"context"

	"github.com/quarrylabs/quarry/internal/canvas"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type specifies the database type (e.g., "duckdb", "postgres")
	Type string

	// Path is the file path for file-based databases.
	// Use ":memory:" for in-memory databases
	Path string

	// Host is the hostname for network-based databases
	Host string

	// Port is the port number for network-based databases
	Port int

	// Database is the database name
	Database string

	// Username for authentication
	Username string

	// Password for authentication
	Password string

	// Options contains additional driver-specific options
	Options map[string]string
}

// Connector defines the interface that all database connectors must
// implement.
type Connector interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement and collects the full result.
	Query(ctx context.Context, sql string) (*canvas.Result, error)

	// DialectName returns the SQL dialect name for this connector.
	DialectName() string
}
