package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected string
	}{
		{
			name: "basic connection",
			config: Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name: "defaults",
			config: Config{
				Database: "mydb",
			},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "custom port",
			config: Config{
				Host:     "db.example.com",
				Port:     5433,
				Database: "analytics",
				Username: "analyst",
			},
			expected: "host=db.example.com port=5433 dbname=analytics sslmode=disable user=analyst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestPostgresConnector_DialectName(t *testing.T) {
	assert.Equal(t, "postgres", NewPostgresConnector().DialectName())
}

func TestPostgresConnector_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, c *PostgresConnector) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, c *PostgresConnector) error {
				return c.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "query without connect",
			operation: func(ctx context.Context, c *PostgresConnector) error {
				_, err := c.Query(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "ping without connect",
			operation: func(ctx context.Context, c *PostgresConnector) error {
				return c.Ping(ctx)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), NewPostgresConnector())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not established")
		})
	}
}

func TestPostgresConnector_CloseWithoutConnect(t *testing.T) {
	assert.NoError(t, NewPostgresConnector().Close())
}
