package connector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quarrylabs/quarry/internal/adapter"
	"github.com/quarrylabs/quarry/internal/canvas"
)

func init() {
	Register("duckdb", func() Connector { return NewDuckDBConnector() })
}

// DuckDBConnector runs query cells against the embedded analytical engine.
// It wraps the same adapter the execution engine uses, so a connector opened
// on the same path sees the same tables.
type DuckDBConnector struct {
	db *adapter.DuckDB
}

// NewDuckDBConnector creates a new, unconnected DuckDB connector.
func NewDuckDBConnector() *DuckDBConnector {
	return &DuckDBConnector{}
}

// Connect opens the database at cfg.Path, in-memory when empty.
func (d *DuckDBConnector) Connect(ctx context.Context, cfg Config) error {
	db := adapter.NewDuckDB(cfg.Path, slog.New(slog.DiscardHandler))
	if err := db.Init(ctx); err != nil {
		return err
	}
	d.db = db
	return nil
}

// Close closes the database.
func (d *DuckDBConnector) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Ping verifies the connection is alive.
func (d *DuckDBConnector) Ping(ctx context.Context) error {
	if d.db == nil {
		return fmt.Errorf("duckdb connection not established")
	}
	_, err := d.db.Query(ctx, "SELECT 1")
	return err
}

// Exec executes a SQL statement that doesn't return rows.
func (d *DuckDBConnector) Exec(ctx context.Context, sql string) error {
	if d.db == nil {
		return fmt.Errorf("duckdb connection not established")
	}
	return d.db.Exec(ctx, sql)
}

// Query executes a SQL statement and collects the full result.
func (d *DuckDBConnector) Query(ctx context.Context, sql string) (*canvas.Result, error) {
	if d.db == nil {
		return nil, fmt.Errorf("duckdb connection not established")
	}
	return d.db.Query(ctx, sql)
}

// DialectName returns "duckdb".
func (d *DuckDBConnector) DialectName() string {
	return "duckdb"
}

var _ Connector = (*DuckDBConnector)(nil)
