// Package canvas holds the authoritative in-memory state of a spatial
// notebook: the nodes placed on the canvas, the edges wiring them together,
// and the results attached to query cells.
//
// All mutation goes through the Canvas so that local edits, execution results
// and remote collaboration messages are serialized against each other.
package canvas

import (
	"fmt"
	"sync"
)

// Canvas is the mutable graph of nodes and edges for one document. It is safe
// for concurrent use.
type Canvas struct {
	mu sync.RWMutex

	id          string
	name        string
	description string

	nodes map[string]*Node
	order []string
	edges []*Edge
}

// New creates an empty canvas with the given identifier.
func New(id string) *Canvas {
	return &Canvas{
		id:    id,
		nodes: make(map[string]*Node),
	}
}

// ID returns the canvas identifier.
func (c *Canvas) ID() string { return c.id }

// SetMeta updates the display metadata.
func (c *Canvas) SetMeta(name, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
	c.description = description
}

// Meta returns the display metadata.
func (c *Canvas) Meta() (name, description string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name, c.description
}

// AddNode adds a new node. Adding a node with a duplicate id is an error;
// remote mutations that replace existing nodes go through UpsertNode.
func (c *Canvas) AddNode(n Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.nodes[n.ID]; exists {
		return fmt.Errorf("node %q already exists", n.ID)
	}
	stored := n
	c.nodes[n.ID] = &stored
	c.order = append(c.order, n.ID)
	return nil
}

// UpsertNode inserts the node or replaces an existing one wholesale.
// This is the apply path for remote `node` messages: last writer wins.
func (c *Canvas) UpsertNode(n Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := n
	if _, exists := c.nodes[n.ID]; !exists {
		c.order = append(c.order, n.ID)
	}
	c.nodes[n.ID] = &stored
}

// RemoveNode deletes a node and every edge touching it, so no dangling edges
// remain.
func (c *Canvas) RemoveNode(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.nodes[id]; !exists {
		return false
	}
	delete(c.nodes, id)
	for i, nid := range c.order {
		if nid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	kept := c.edges[:0]
	for _, e := range c.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	c.edges = kept
	return true
}

// Node returns a copy of the node with the given id. The Result and Preview
// pointers are shared; both are treated as immutable once attached.
func (c *Canvas) Node(id string) (Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes in insertion order.
func (c *Canvas) Nodes() []Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Node, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.nodes[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (c *Canvas) NodeCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// AddEdge appends an edge. An edge with a duplicate id is ignored so that a
// locally created edge echoed back by another client is not applied twice.
func (c *Canvas) AddEdge(e Edge) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.edges {
		if existing.ID == e.ID {
			return
		}
	}
	stored := e
	c.edges = append(c.edges, &stored)
}

// Edges returns copies of all edges.
func (c *Canvas) Edges() []Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Edge, 0, len(c.edges))
	for _, e := range c.edges {
		out = append(out, *e)
	}
	return out
}

// EdgesFrom returns copies of all edges whose source is the given node.
func (c *Canvas) EdgesFrom(source string) []Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Edge
	for _, e := range c.edges {
		if e.Source == source {
			out = append(out, *e)
		}
	}
	return out
}

// SetPosition moves a node.
func (c *Canvas) SetPosition(id string, pos Position) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	n.Position = pos
	return true
}

// SetText updates the editable text of a node: query text for query cells,
// note content for note cells. Chart cells have no editable text.
func (c *Canvas) SetText(id, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	switch n.Kind {
	case KindQuery:
		n.Data.SQL = text
	case KindNote:
		n.Data.Content = text
	default:
		return false
	}
	return true
}

// SetExecuting flips the isExecuting flag on a query node. The prior result
// and error are deliberately left in place so the last good result stays
// visible while a re-run is in flight.
func (c *Canvas) SetExecuting(id string, executing bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	n.Data.IsExecuting = executing
	return true
}

// SetResult records a successful run: the result is stored, any prior error
// is cleared and the executing flag drops.
func (c *Canvas) SetResult(id string, res *Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	n.Data.Result = res
	n.Data.Error = ""
	n.Data.IsExecuting = false
	return true
}

// SetError records a failed run: the error message is stored verbatim and the
// executing flag drops. A prior result, if any, is left as-is.
func (c *Canvas) SetError(id, msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	n.Data.Error = msg
	n.Data.IsExecuting = false
	return true
}

// SetPreview attaches a remote preview to a node.
func (c *Canvas) SetPreview(id string, p *Preview) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	n.Data.Preview = p
	return true
}

// PropagateResult copies a query result onto every chart node connected by an
// edge from the source node, and records where the data came from. Returns
// the ids of the chart nodes that were updated.
func (c *Canvas) PropagateResult(source string, res *Result) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var updated []string
	for _, e := range c.edges {
		if e.Source != source {
			continue
		}
		target, ok := c.nodes[e.Target]
		if !ok || target.Kind != KindChart {
			continue
		}
		target.Data.Result = res
		target.Data.SourceNodeID = source
		updated = append(updated, target.ID)
	}
	return updated
}
