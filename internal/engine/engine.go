// Package engine orchestrates the execution of canvas query cells.
// For each run it resolves inline cell references, materializes the
// referenced results as relations in the analytical engine, executes the
// rewritten query, and propagates the result to the cell, its downstream
// charts, and (when collaboration is live) the relay.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quarrylabs/quarry/internal/canvas"
	"github.com/quarrylabs/quarry/internal/refparse"
)

// Database is the narrow surface of the analytical engine consumed by the
// coordinator. It is injected rather than reached as global state.
type Database interface {
	Init(ctx context.Context) error
	Query(ctx context.Context, sql string) (*canvas.Result, error)
	CreateTableFromJSON(ctx context.Context, name string, records []map[string]any) error
}

// Broadcaster receives bounded previews of successful runs for fan-out to
// collaborators.
type Broadcaster interface {
	SyncPreview(nodeID string, preview *canvas.Preview)
}

// Engine coordinates cell runs against one canvas.
type Engine struct {
	db     Database
	canvas *canvas.Canvas
	logger *slog.Logger

	mu          sync.Mutex
	broadcaster Broadcaster
}

// New creates a coordinator for the given canvas.
func New(db Database, cv *canvas.Canvas, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{db: db, canvas: cv, logger: logger}
}

// SetBroadcaster attaches or detaches (nil) the collaboration broadcaster.
// Collaboration can be toggled while runs are in flight.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.mu.Lock()
	e.broadcaster = b
	e.mu.Unlock()
}

func (e *Engine) currentBroadcaster() Broadcaster {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.broadcaster
}

// RunNode executes the query cell with the given id.
//
// The run keeps the cell's last good result visible while in flight; on
// success the result replaces it and any prior error is cleared, on failure
// the engine's error message is stored verbatim and the prior result is left
// alone. Runs are not cancelled or sequenced against each other: overlapping
// runs on the same node resolve last-write-wins.
func (e *Engine) RunNode(ctx context.Context, nodeID string) error {
	node, ok := e.canvas.Node(nodeID)
	if !ok {
		return fmt.Errorf("node %q not found", nodeID)
	}
	if node.Kind != canvas.KindQuery {
		return fmt.Errorf("node %q is a %s cell, only query cells execute", nodeID, node.Kind)
	}

	e.canvas.SetExecuting(nodeID, true)
	e.logger.Debug("run started", "node", nodeID)

	refs, rewritten := refparse.Extract(node.Data.SQL)

	// Materialize referenced results sequentially in first-occurrence order.
	// A reference without a result is skipped; the engine then reports the
	// missing relation when the query runs, which is the user-visible error.
	for _, ref := range refs {
		outcome := e.materialize(ctx, ref)
		switch outcome.State {
		case MaterializeReady:
			e.logger.Debug("materialized reference", "node", nodeID, "ref", ref, "relation", outcome.Relation)
		case MaterializeSkipped:
			e.logger.Debug("reference has no result, skipping", "node", nodeID, "ref", ref)
		case MaterializeFailed:
			e.canvas.SetError(nodeID, outcome.Err.Error())
			e.logger.Debug("materialization failed", "node", nodeID, "ref", ref, "error", outcome.Err)
			return outcome.Err
		}
	}

	result, err := e.db.Query(ctx, rewritten)
	if err != nil {
		e.canvas.SetError(nodeID, err.Error())
		e.logger.Debug("run failed", "node", nodeID, "error", err)
		return err
	}

	e.canvas.SetResult(nodeID, result)

	charts := e.canvas.PropagateResult(nodeID, result)
	if len(charts) > 0 {
		e.logger.Debug("propagated result to charts", "node", nodeID, "charts", charts)
	}

	if b := e.currentBroadcaster(); b != nil {
		b.SyncPreview(nodeID, result.Preview())
	}

	e.logger.Info("run succeeded", "node", nodeID, "rows", len(result.Rows))
	return nil
}
