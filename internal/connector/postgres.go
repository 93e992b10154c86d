package connector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quarrylabs/quarry/internal/canvas"
)

func init() {
	Register("postgres", func() Connector { return NewPostgresConnector() })
}

// PostgresConnector runs query cells against a PostgreSQL server.
type PostgresConnector struct {
	pool *pgxpool.Pool
}

// NewPostgresConnector creates a new, unconnected PostgreSQL connector.
func NewPostgresConnector() *PostgresConnector {
	return &PostgresConnector{}
}

func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if v, ok := cfg.Options["sslmode"]; ok {
		sslmode = v
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.Username != "" {
		dsn += " user=" + cfg.Username
	}
	if cfg.Password != "" {
		dsn += " password=" + cfg.Password
	}
	return dsn
}

// Connect establishes a connection pool and verifies it with a ping.
func (p *PostgresConnector) Connect(ctx context.Context, cfg Config) error {
	pool, err := pgxpool.New(ctx, buildPostgresDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	p.pool = pool
	return nil
}

// Close releases the connection pool.
func (p *PostgresConnector) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

// Ping verifies the connection is alive.
func (p *PostgresConnector) Ping(ctx context.Context) error {
	if p.pool == nil {
		return fmt.Errorf("postgres connection not established")
	}
	return p.pool.Ping(ctx)
}

// Exec executes a SQL statement that doesn't return rows.
func (p *PostgresConnector) Exec(ctx context.Context, sql string) error {
	if p.pool == nil {
		return fmt.Errorf("postgres connection not established")
	}

	if _, err := p.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Query executes a SQL statement and collects the full result.
func (p *PostgresConnector) Query(ctx context.Context, sql string) (*canvas.Result, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("postgres connection not established")
	}

	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	result := &canvas.Result{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	return result, nil
}

// DialectName returns "postgres".
func (p *PostgresConnector) DialectName() string {
	return "postgres"
}

var _ Connector = (*PostgresConnector)(nil)
