// Package adapter provides access to the embedded analytical engine.
// Quarry runs all cell queries against a process-wide DuckDB instance;
// the adapter owns its lifecycle and exposes the narrow surface the
// execution engine needs.
package adapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/quarrylabs/quarry/internal/canvas"
)

// DuckDB wraps a DuckDB connection behind database/sql. Initialization is
// lazy and at-most-once: concurrent callers of Init share a single attempt
// rather than starting a second one.
type DuckDB struct {
	path   string
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// NewDuckDB creates an uninitialized adapter. Use ":memory:" (or empty) for
// an in-memory database.
func NewDuckDB(path string, logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDB{path: path, logger: logger}
}

// NewWithDB wraps an existing connection. Used by tests.
func NewWithDB(db *sql.DB, logger *slog.Logger) *DuckDB {
	d := NewDuckDB("", logger)
	d.db = db
	d.initOnce.Do(func() {})
	return d
}

// Init opens the database connection. It is idempotent; every caller after
// the first (including callers that overlap the first) observes the outcome
// of the single initialization attempt.
func (d *DuckDB) Init(ctx context.Context) error {
	d.initOnce.Do(func() {
		path := d.path
		if path == "" {
			path = ":memory:"
		}

		d.logger.Debug("initializing analytical engine", "path", path)

		db, err := sql.Open("duckdb", path)
		if err != nil {
			d.initErr = fmt.Errorf("failed to open duckdb connection: %w", err)
			return
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			d.initErr = fmt.Errorf("failed to ping duckdb: %w", err)
			return
		}
		d.db = db
	})
	return d.initErr
}

// Close closes the connection.
func (d *DuckDB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Query executes SQL and collects the full result set.
func (d *DuckDB) Query(ctx context.Context, sqlStr string) (*canvas.Result, error) {
	if err := d.Init(ctx); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectRows(rows)
}

// collectRows drains a sql.Rows into a Result. []byte values are converted
// to strings so results stay JSON-serializable.
func collectRows(rows *sql.Rows) (*canvas.Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &canvas.Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// CreateTableFromJSON registers a relation built from column-keyed records,
// replacing any existing relation of the same name so re-runs are idempotent.
// The records are staged through a temporary JSON file and loaded with
// DuckDB's read_json_auto.
func (d *DuckDB) CreateTableFromJSON(ctx context.Context, name string, records []map[string]any) error {
	if err := d.Init(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	f, err := os.CreateTemp("", "quarry-relation-*.json")
	if err != nil {
		return fmt.Errorf("failed to stage records: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stage records: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to stage records: %w", err)
	}

	if _, err := d.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
		return fmt.Errorf("failed to drop existing relation %s: %w", name, err)
	}

	create := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM read_json_auto('%s')", name, f.Name())
	if _, err := d.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create relation %s: %w", name, err)
	}

	return nil
}

// Exec executes a statement that returns no rows.
func (d *DuckDB) Exec(ctx context.Context, sqlStr string) error {
	if err := d.Init(ctx); err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Tables lists the user-visible tables in the database.
func (d *DuckDB) Tables(ctx context.Context) ([]string, error) {
	res, err := d.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if s, ok := row[0].(string); ok {
			tables = append(tables, s)
		}
	}
	return tables, nil
}

// LoadCSV loads a CSV file into a table with automatic schema detection.
func (d *DuckDB) LoadCSV(ctx context.Context, table, path string) error {
	return d.loadFile(ctx, table, path, "read_csv_auto('%s', header=true)")
}

// LoadParquet loads a Parquet file into a table.
func (d *DuckDB) LoadParquet(ctx context.Context, table, path string) error {
	return d.loadFile(ctx, table, path, "read_parquet('%s')")
}

// LoadJSON loads a JSON file into a table.
func (d *DuckDB) LoadJSON(ctx context.Context, table, path string) error {
	return d.loadFile(ctx, table, path, "read_json_auto('%s')")
}

func (d *DuckDB) loadFile(ctx context.Context, table, path, reader string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	query := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM "+reader, table, absPath)
	if err := d.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}

	d.logger.Debug("loaded file as table", "table", table, "file", absPath)
	return nil
}
