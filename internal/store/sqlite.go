package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/quarrylabs/quarry/internal/canvas"
)

// SQLiteStore implements CanvasStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite canvas store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path)
	} else {
		dsn = ":memory:?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func generateID() string {
	return uuid.New().String()
}

func marshalGraph(nodes []canvas.Node, edges []canvas.Edge) (string, string, error) {
	if nodes == nil {
		nodes = []canvas.Node{}
	}
	if edges == nil {
		edges = []canvas.Edge{}
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal edges: %w", err)
	}
	return string(nodesJSON), string(edgesJSON), nil
}

func unmarshalGraph(rec *CanvasRecord, nodesJSON, edgesJSON string) error {
	if err := json.Unmarshal([]byte(nodesJSON), &rec.Nodes); err != nil {
		return fmt.Errorf("failed to unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal([]byte(edgesJSON), &rec.Edges); err != nil {
		return fmt.Errorf("failed to unmarshal edges: %w", err)
	}
	return nil
}

// CreateCanvas saves a new canvas and returns its record.
func (s *SQLiteStore) CreateCanvas(name string, nodes []canvas.Node, edges []canvas.Edge) (*CanvasRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	nodesJSON, edgesJSON, err := marshalGraph(nodes, edges)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &CanvasRecord{
		ID:        generateID(),
		Name:      name,
		Nodes:     nodes,
		Edges:     edges,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(
		`INSERT INTO canvases (id, name, nodes, edges, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, nodesJSON, edgesJSON, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create canvas: %w", err)
	}

	return rec, nil
}

// GetCanvas retrieves a canvas by ID.
func (s *SQLiteStore) GetCanvas(id string) (*CanvasRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rec := &CanvasRecord{}
	var nodesJSON, edgesJSON string

	err := s.db.QueryRow(
		`SELECT id, name, nodes, edges, created_at, updated_at FROM canvases WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.Name, &nodesJSON, &edgesJSON, &rec.CreatedAt, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("canvas not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get canvas: %w", err)
	}

	if err := unmarshalGraph(rec, nodesJSON, edgesJSON); err != nil {
		return nil, err
	}

	return rec, nil
}

// GetCanvasByName retrieves the most recently updated canvas with the given
// name, or nil when none exists. Names are not unique; the newest wins.
func (s *SQLiteStore) GetCanvasByName(name string) (*CanvasRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rec := &CanvasRecord{}
	var nodesJSON, edgesJSON string

	err := s.db.QueryRow(
		`SELECT id, name, nodes, edges, created_at, updated_at FROM canvases WHERE name = ? ORDER BY updated_at DESC LIMIT 1`,
		name,
	).Scan(&rec.ID, &rec.Name, &nodesJSON, &edgesJSON, &rec.CreatedAt, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get canvas by name: %w", err)
	}

	if err := unmarshalGraph(rec, nodesJSON, edgesJSON); err != nil {
		return nil, err
	}

	return rec, nil
}

// ListCanvases retrieves all saved canvases, most recently updated first.
func (s *SQLiteStore) ListCanvases() ([]*CanvasRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, name, nodes, edges, created_at, updated_at FROM canvases ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list canvases: %w", err)
	}
	defer rows.Close()

	var records []*CanvasRecord
	for rows.Next() {
		rec := &CanvasRecord{}
		var nodesJSON, edgesJSON string

		err := rows.Scan(&rec.ID, &rec.Name, &nodesJSON, &edgesJSON, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan canvas: %w", err)
		}
		if err := unmarshalGraph(rec, nodesJSON, edgesJSON); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpdateCanvas replaces a canvas's graph wholesale.
func (s *SQLiteStore) UpdateCanvas(id string, nodes []canvas.Node, edges []canvas.Edge) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	nodesJSON, edgesJSON, err := marshalGraph(nodes, edges)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(
		`UPDATE canvases SET nodes = ?, edges = ?, updated_at = ? WHERE id = ?`,
		nodesJSON, edgesJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update canvas: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("canvas not found: %s", id)
	}

	return nil
}

// RenameCanvas updates a canvas's display name.
func (s *SQLiteStore) RenameCanvas(id, name string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.Exec(
		`UPDATE canvases SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to rename canvas: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("canvas not found: %s", id)
	}

	return nil
}

// DeleteCanvas removes a saved canvas.
func (s *SQLiteStore) DeleteCanvas(id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.Exec(`DELETE FROM canvases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete canvas: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("canvas not found: %s", id)
	}

	return nil
}

// Snapshot saves the current state of a live canvas over an existing record.
func (s *SQLiteStore) Snapshot(cv *canvas.Canvas, id string) error {
	return s.UpdateCanvas(id, cv.Nodes(), cv.Edges())
}

// Restore loads a saved canvas into a fresh live canvas.
func (s *SQLiteStore) Restore(id string) (*canvas.Canvas, error) {
	rec, err := s.GetCanvas(id)
	if err != nil {
		return nil, err
	}

	cv := canvas.New(rec.ID)
	cv.SetMeta(rec.Name, "")
	for _, n := range rec.Nodes {
		if err := cv.AddNode(n); err != nil {
			return nil, fmt.Errorf("failed to restore node %s: %w", n.ID, err)
		}
	}
	for _, e := range rec.Edges {
		cv.AddEdge(e)
	}
	return cv, nil
}

// Ensure SQLiteStore implements CanvasStore interface
var _ CanvasStore = (*SQLiteStore)(nil)
