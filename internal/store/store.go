// Package store persists canvases between sessions. The live canvas state
// is in-memory; the store is the durable copy loaded on open and written on
// save.
package store

import (
	"time"

	"github.com/quarrylabs/quarry/internal/canvas"
)

// CanvasRecord is a saved canvas: its graph serialized whole, replaced on
// every save rather than patched.
type CanvasRecord struct {
	ID        string
	Name      string
	Nodes     []canvas.Node
	Edges     []canvas.Edge
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanvasStore is the persistence interface for canvases.
type CanvasStore interface {
	CreateCanvas(name string, nodes []canvas.Node, edges []canvas.Edge) (*CanvasRecord, error)
	GetCanvas(id string) (*CanvasRecord, error)
	GetCanvasByName(name string) (*CanvasRecord, error)
	ListCanvases() ([]*CanvasRecord, error)
	UpdateCanvas(id string, nodes []canvas.Node, edges []canvas.Edge) error
	RenameCanvas(id, name string) error
	DeleteCanvas(id string) error
}
