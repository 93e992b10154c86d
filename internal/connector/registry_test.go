package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfRegistration(t *testing.T) {
	assert.True(t, IsRegistered("duckdb"), "duckdb connector should be auto-registered")
	assert.True(t, IsRegistered("postgres"), "postgres connector should be auto-registered")
}

func TestListConnectors(t *testing.T) {
	names := ListConnectors()

	assert.Contains(t, names, "duckdb")
	assert.Contains(t, names, "postgres")
	assert.IsIncreasing(t, names, "list should be sorted")
}

func TestIsRegistered(t *testing.T) {
	tests := []struct {
		name      string
		connector string
		expected  bool
	}{
		{"duckdb registered", "duckdb", true},
		{"postgres registered", "postgres", true},
		{"unknown not registered", "unknown_db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRegistered(tt.connector), "IsRegistered(%q)", tt.connector)
		})
	}
}

func TestGet(t *testing.T) {
	factory, ok := Get("duckdb")
	require.True(t, ok)
	require.NotNil(t, factory)

	_, ok = Get("nonexistent")
	assert.False(t, ok)
}

func TestNewConnector_Success(t *testing.T) {
	c, err := NewConnector(Config{Type: "duckdb", Path: ":memory:"})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "duckdb", c.DialectName())
}

func TestNewConnector_UnknownType(t *testing.T) {
	_, err := NewConnector(Config{Type: "unknown_connector"})
	require.Error(t, err)

	var unknownErr *UnknownConnectorError
	require.ErrorAs(t, err, &unknownErr)

	assert.Equal(t, "unknown_connector", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "duckdb")
	assert.Contains(t, err.Error(), "quarry.yaml")
}

func TestNewConnector_EmptyType(t *testing.T) {
	_, err := NewConnector(Config{Type: ""})
	require.Error(t, err)
	assert.Equal(t, "connector type not specified", err.Error())
}

func TestRegister(t *testing.T) {
	Register("test_connector", func() Connector { return nil })

	assert.True(t, IsRegistered("test_connector"))

	factory, ok := Get("test_connector")
	assert.True(t, ok)
	assert.NotNil(t, factory)
}
