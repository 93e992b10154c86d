package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/canvas"
)

func TestMaterialize_SkippedWhenMissing(t *testing.T) {
	e, _ := newTestEngine(t)

	outcome := e.materialize(context.Background(), "ghost-1")
	assert.Equal(t, MaterializeSkipped, outcome.State)
	assert.Equal(t, "ghost_1", outcome.Relation)
	assert.NoError(t, outcome.Err)
}

func TestMaterialize_SkippedWithoutResult(t *testing.T) {
	e, cv := newTestEngine(t)
	addQueryNode(t, cv, "q1", "SELECT 1")

	outcome := e.materialize(context.Background(), "q1")
	assert.Equal(t, MaterializeSkipped, outcome.State)
}

func TestMaterialize_Ready(t *testing.T) {
	e, cv := newTestEngine(t)
	ctx := context.Background()

	addQueryNode(t, cv, "sql-1", "irrelevant")
	cv.SetResult("sql-1", &canvas.Result{
		Columns: []string{"id", "name"},
		Rows:    [][]any{{1, "alpha"}, {2, "beta"}},
	})

	outcome := e.materialize(ctx, "sql-1")
	require.Equal(t, MaterializeReady, outcome.State)
	assert.Equal(t, "sql_1", outcome.Relation)

	res, err := e.db.Query(ctx, "SELECT * FROM sql_1 ORDER BY id")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.Len(t, res.Columns, 2)
}

func TestMaterialize_FailedOnMalformedResult(t *testing.T) {
	e, cv := newTestEngine(t)

	addQueryNode(t, cv, "q1", "irrelevant")
	cv.SetResult("q1", &canvas.Result{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{1}}, // too few values
	})

	outcome := e.materialize(context.Background(), "q1")
	require.Equal(t, MaterializeFailed, outcome.State)
	assert.Error(t, outcome.Err)
}

func TestMaterialize_ChartResultIsReferenceable(t *testing.T) {
	e, cv := newTestEngine(t)

	// Charts can carry an inherited result; references resolve against any
	// node holding a result, regardless of kind.
	require.NoError(t, cv.AddNode(canvas.Node{
		ID:   "chart-1",
		Kind: canvas.KindChart,
		Data: canvas.NodeData{
			Result: &canvas.Result{Columns: []string{"v"}, Rows: [][]any{{7}}},
		},
	}))

	outcome := e.materialize(context.Background(), "chart-1")
	assert.Equal(t, MaterializeReady, outcome.State)
}
