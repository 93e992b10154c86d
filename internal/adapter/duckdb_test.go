package adapter

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/testutil"
)

func newTestDB(t *testing.T) *DuckDB {
	t.Helper()
	d := NewDuckDB(":memory:", testutil.NewTestLogger(t))
	require.NoError(t, d.Init(context.Background()))
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestInit_Idempotent(t *testing.T) {
	d := NewDuckDB(":memory:", nil)
	defer func() { _ = d.Close() }()

	ctx := context.Background()
	require.NoError(t, d.Init(ctx))
	require.NoError(t, d.Init(ctx))
}

func TestInit_ConcurrentCallersShareOneAttempt(t *testing.T) {
	d := NewDuckDB(":memory:", nil)
	defer func() { _ = d.Close() }()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = d.Init(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestQuery_Simple(t *testing.T) {
	d := newTestDB(t)

	res, err := d.Query(context.Background(), "SELECT 1 AS answer")
	require.NoError(t, err)

	assert.Equal(t, []string{"answer"}, res.Columns)
	require.Len(t, res.Rows, 1)
	require.Len(t, res.Rows[0], 1)
}

func TestCreateTableFromJSON_RoundTrip(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	records := []map[string]any{
		{"id": 1, "name": "alpha"},
		{"id": 2, "name": "beta"},
		{"id": 3, "name": "gamma"},
	}
	require.NoError(t, d.CreateTableFromJSON(ctx, "sql_1", records))

	res, err := d.Query(ctx, "SELECT * FROM sql_1 ORDER BY id")
	require.NoError(t, err)
	assert.Len(t, res.Rows, len(records))
	assert.Len(t, res.Columns, 2)
}

func TestCreateTableFromJSON_ReplacesExisting(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.CreateTableFromJSON(ctx, "rel", []map[string]any{
		{"v": 1}, {"v": 2},
	}))
	require.NoError(t, d.CreateTableFromJSON(ctx, "rel", []map[string]any{
		{"v": 42},
	}))

	res, err := d.Query(ctx, "SELECT * FROM rel")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestSeedSampleData_Idempotent(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.SeedSampleData(ctx))
	require.NoError(t, d.SeedSampleData(ctx))

	res, err := d.Query(ctx, "SELECT COUNT(*) FROM customers")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	tables, err := d.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "customers")
	assert.Contains(t, tables, "products")
	assert.Contains(t, tables, "orders")
}

func TestLoadCSV(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "people.csv")
	csv := "id,name\n1,alice\n2,bob\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	require.NoError(t, d.LoadCSV(ctx, "people", path))

	res, err := d.Query(ctx, "SELECT * FROM people ORDER BY id")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
}
