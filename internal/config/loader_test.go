package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quarry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "duckdb", cfg.Database.Type)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "quarry.db", cfg.Store.Path)
	assert.Equal(t, ":1234", cfg.Relay.Addr)
	assert.Equal(t, "default", cfg.Relay.DefaultRoom)
	assert.Equal(t, "default", cfg.Collab.Room)
	assert.Equal(t, 400, cfg.Collab.DebounceMS)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.True(t, cfg.Data.Sample)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
database:
  path: analytics.duckdb
relay:
  addr: ":9999"
collab:
  url: ws://collab.internal:1234
  room: team-canvas
data:
  sample: false
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "analytics.duckdb", cfg.Database.Path)
	assert.Equal(t, ":9999", cfg.Relay.Addr)
	assert.Equal(t, "ws://collab.internal:1234", cfg.Collab.URL)
	assert.Equal(t, "team-canvas", cfg.Collab.Room)
	assert.False(t, cfg.Data.Sample)

	// Untouched sections keep their defaults.
	assert.Equal(t, "duckdb", cfg.Database.Type)
	assert.Equal(t, "quarry.db", cfg.Store.Path)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")

	t.Setenv("QUARRY_LOG_LEVEL", "warn")
	t.Setenv("QUARRY_RELAY__ADDR", ":7777")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":7777", cfg.Relay.Addr)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("QUARRY_DATABASE__PATH", "env.duckdb")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "")
	flags.String("addr", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--database", "flag.duckdb", "--addr", ":5555", "--log-level", "error"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "flag.duckdb", cfg.Database.Path)
	assert.Equal(t, ":5555", cfg.Relay.Addr)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_UnchangedFlagsIgnored(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "unset-default", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// The flag default must not clobber the config default.
	assert.Equal(t, ":memory:", cfg.Database.Path)
}

func TestLoad_InvalidDatabaseType(t *testing.T) {
	path := writeConfig(t, "database:\n  type: oracle\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestLoad_CredentialExpansion(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")

	path := writeConfig(t, `
database:
  type: postgres
  host: pg.internal
  database: analytics
  user: quarry
  password: ${TEST_PG_PASSWORD}
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestExpandEnvVars_UnsetLeftAlone(t *testing.T) {
	assert.Equal(t, "${DEFINITELY_NOT_SET_XYZ}", expandEnvVars("${DEFINITELY_NOT_SET_XYZ}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestDatabaseConfig_ToConnectorConfig(t *testing.T) {
	d := DatabaseConfig{
		Type:     "postgres",
		Host:     "pg.internal",
		Port:     5433,
		Database: "analytics",
		User:     "quarry",
		Password: "pw",
		Options:  map[string]string{"sslmode": "require"},
	}

	cc := d.ToConnectorConfig()
	assert.Equal(t, "postgres", cc.Type)
	assert.Equal(t, "pg.internal", cc.Host)
	assert.Equal(t, 5433, cc.Port)
	assert.Equal(t, "quarry", cc.Username)
	assert.Equal(t, "require", cc.Options["sslmode"])
}
