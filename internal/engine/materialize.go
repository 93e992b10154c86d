package engine

import (
	"context"
	"fmt"

	"github.com/quarrylabs/quarry/internal/refparse"
)

// MaterializeState tags the outcome of registering one referenced cell's
// result as a relation.
type MaterializeState int

const (
	// MaterializeReady means the relation was (re)created and is queryable.
	MaterializeReady MaterializeState = iota
	// MaterializeSkipped means the referenced cell is missing or has no
	// result yet. The run continues; the query itself will fail with the
	// engine's unknown-relation error if it actually needs the relation.
	MaterializeSkipped
	// MaterializeFailed means the result could not be registered, e.g. a
	// malformed result shape. The run stops and the error lands on the node.
	MaterializeFailed
)

// MaterializeOutcome describes one materialization attempt.
type MaterializeOutcome struct {
	State    MaterializeState
	Relation string
	Err      error
}

// materialize registers the referenced cell's stored result under its
// relation name, replacing any previous registration. It reads only the
// referenced node's own stored result, never partial state from the current
// run, so sibling references are independent of each other.
func (e *Engine) materialize(ctx context.Context, ref string) MaterializeOutcome {
	relation := refparse.RelationName(ref)

	node, ok := e.canvas.Node(ref)
	if !ok || node.Data.Result == nil {
		return MaterializeOutcome{State: MaterializeSkipped, Relation: relation}
	}

	records, err := node.Data.Result.Records()
	if err != nil {
		return MaterializeOutcome{
			State:    MaterializeFailed,
			Relation: relation,
			Err:      fmt.Errorf("reference %s has a malformed result: %w", ref, err),
		}
	}

	if err := e.db.CreateTableFromJSON(ctx, relation, records); err != nil {
		return MaterializeOutcome{
			State:    MaterializeFailed,
			Relation: relation,
			Err:      fmt.Errorf("failed to materialize reference %s: %w", ref, err),
		}
	}

	return MaterializeOutcome{State: MaterializeReady, Relation: relation}
}
