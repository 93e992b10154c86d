package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Validate(t *testing.T) {
	ok := &Result{Columns: []string{"a", "b"}, Rows: [][]any{{1, 2}, {3, 4}}}
	assert.NoError(t, ok.Validate())

	empty := &Result{Columns: []string{"a"}, Rows: [][]any{}}
	assert.NoError(t, empty.Validate())

	ragged := &Result{Columns: []string{"a", "b"}, Rows: [][]any{{1, 2}, {3}}}
	assert.Error(t, ragged.Validate())
}

func TestResult_Preview_Truncates(t *testing.T) {
	r := &Result{Columns: []string{"n"}}
	for i := 0; i < 12; i++ {
		r.Rows = append(r.Rows, []any{i})
	}

	p := r.Preview()
	assert.Equal(t, []string{"n"}, p.Columns)
	assert.Len(t, p.Rows, PreviewRowLimit)
	assert.Equal(t, 12, p.TotalRows)
}

func TestResult_Preview_SmallResultUntruncated(t *testing.T) {
	r := &Result{Columns: []string{"n"}, Rows: [][]any{{1}, {2}}}

	p := r.Preview()
	assert.Len(t, p.Rows, 2)
	assert.Equal(t, 2, p.TotalRows)
}

func TestResult_Records(t *testing.T) {
	r := &Result{
		Columns: []string{"id", "name"},
		Rows:    [][]any{{1, "alice"}, {2, "bob"}},
	}

	records, err := r.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, map[string]any{"id": 1, "name": "alice"}, records[0])
	assert.Equal(t, map[string]any{"id": 2, "name": "bob"}, records[1])
}

func TestResult_Records_Malformed(t *testing.T) {
	r := &Result{Columns: []string{"a", "b"}, Rows: [][]any{{1}}}
	_, err := r.Records()
	assert.Error(t, err)
}
