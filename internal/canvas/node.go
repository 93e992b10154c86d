package canvas

// NodeKind identifies the variant of a canvas node.
type NodeKind string

const (
	// KindQuery is a SQL cell: editable query text plus its last result.
	KindQuery NodeKind = "query"
	// KindNote is a free-form text cell. Notes never execute and are never
	// dependency sources.
	KindNote NodeKind = "note"
	// KindChart is a visualization cell fed by an upstream query node.
	KindChart NodeKind = "chart"
)

// Position is a node's 2D location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ColumnMapping binds result columns to chart axes.
type ColumnMapping struct {
	XColumn string `json:"xColumn"`
	YColumn string `json:"yColumn"`
}

// NodeData holds the variant-specific payload of a node. The struct is a
// single bag shared by all kinds so that full node objects round-trip through
// the relay unchanged; which fields are meaningful depends on the node kind.
type NodeData struct {
	Label string `json:"label,omitempty"`

	// Query cells.
	SQL         string  `json:"sql,omitempty"`
	IsExecuting bool    `json:"isExecuting,omitempty"`
	Result      *Result `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`

	// Note cells.
	Content string `json:"content,omitempty"`

	// Chart cells.
	ChartKind    string         `json:"chartKind,omitempty"`
	SourceNodeID string         `json:"sourceNodeId,omitempty"`
	Mapping      *ColumnMapping `json:"mapping,omitempty"`

	// Preview received from a remote collaborator's run.
	Preview *Preview `json:"preview,omitempty"`
}

// Node is a single cell on the canvas. The ID is stable for the canvas's
// lifetime.
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge connects a source node to a target node. Handles are nullable
// identifiers carried for the benefit of the rendering layer.
type Edge struct {
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	SourceHandle *string `json:"sourceHandle"`
	TargetHandle *string `json:"targetHandle"`
}
