// Package collab owns the client side of canvas collaboration: one relay
// connection per viewed canvas, translating local mutations into relay
// messages and incoming messages back into canvas state.
package collab

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quarrylabs/quarry/internal/canvas"
	"github.com/quarrylabs/quarry/internal/relay"
)

// DefaultDebounce is the quiet window applied to position and text updates
// before they are transmitted. Received updates are never debounced.
const DefaultDebounce = 400 * time.Millisecond

// Config configures a collaboration session.
type Config struct {
	// URL is the relay base URL, e.g. "ws://localhost:1234".
	URL string
	// Room is the canvas identifier shared by all collaborators.
	Room string
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	// Logger is optional.
	Logger *slog.Logger
}

// Session is one live connection to the relay. A session that loses its
// connection stays dead; reconnection means dialing a new session.
type Session struct {
	logger *slog.Logger
	room   string

	writeMu sync.Mutex
	ws      *websocket.Conn

	mu       sync.Mutex
	handlers map[string]func(relay.Message)
	users    int
	synced   bool

	debounce *debouncer
}

// Dial connects to the relay and starts the receive loop.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	wait := cfg.Debounce
	if wait <= 0 {
		wait = DefaultDebounce
	}

	url := strings.TrimSuffix(cfg.URL, "/") + "/" + cfg.Room
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}

	s := &Session{
		logger:   logger,
		room:     cfg.Room,
		ws:       ws,
		handlers: make(map[string]func(relay.Message)),
		synced:   true,
		debounce: newDebouncer(wait),
	}

	go s.readLoop()

	logger.Info("collaboration session connected", "room", cfg.Room)
	return s, nil
}

// Handle registers the handler applied to incoming messages of the given
// kind. Messages arriving before a kind has a handler are dropped, not
// queued; registering after Dial is fine.
func (s *Session) Handle(kind string, fn func(relay.Message)) {
	s.mu.Lock()
	s.handlers[kind] = fn
	s.mu.Unlock()
}

// Synced reports whether the connection is live.
func (s *Session) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

// Users returns the last announced member count for the room, 0 when not
// live.
func (s *Session) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users
}

// Room returns the joined room name.
func (s *Session) Room() string { return s.room }

// Close tears the session down, cancelling any pending debounced sends.
func (s *Session) Close() error {
	s.debounce.stop()

	s.writeMu.Lock()
	_ = s.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()

	return s.ws.Close()
}

// SyncPosition transmits a node move, debounced per node.
func (s *Session) SyncPosition(nodeID string, pos canvas.Position) {
	p := pos
	s.debounce.trigger("position/"+nodeID, func() {
		s.send(relay.Message{Kind: relay.KindPosition, NodeID: nodeID, Position: &p})
	})
}

// SyncText transmits a text edit, debounced per node.
func (s *Session) SyncText(nodeID, text string) {
	s.debounce.trigger("text/"+nodeID, func() {
		s.send(relay.Message{Kind: relay.KindText, NodeID: nodeID, Text: &text})
	})
}

// SyncEdge transmits a newly created edge immediately.
func (s *Session) SyncEdge(edge canvas.Edge) {
	e := edge
	s.send(relay.Message{Kind: relay.KindEdge, Edge: &e})
}

// SyncNode transmits a full node immediately.
func (s *Session) SyncNode(node canvas.Node) {
	n := node
	s.send(relay.Message{Kind: relay.KindNode, Node: &n})
}

// SyncPreview transmits a bounded result preview immediately. Satisfies the
// execution engine's Broadcaster.
func (s *Session) SyncPreview(nodeID string, preview *canvas.Preview) {
	s.send(relay.Message{Kind: relay.KindPreview, NodeID: nodeID, Preview: preview})
}

func (s *Session) send(msg relay.Message) {
	s.writeMu.Lock()
	err := s.ws.WriteJSON(msg)
	s.writeMu.Unlock()
	if err != nil {
		s.markDead()
		s.logger.Warn("relay send failed", "room", s.room, "kind", msg.Kind, "error", err)
	}
}

func (s *Session) readLoop() {
	for {
		var msg relay.Message
		if err := s.ws.ReadJSON(&msg); err != nil {
			s.markDead()
			s.logger.Info("collaboration session disconnected", "room", s.room, "error", err)
			return
		}

		if msg.Kind == relay.KindUsers {
			s.mu.Lock()
			s.users = msg.Count
			s.mu.Unlock()
			continue
		}

		s.mu.Lock()
		handler := s.handlers[msg.Kind]
		s.mu.Unlock()

		if handler == nil {
			s.logger.Debug("no handler for message kind, dropping", "kind", msg.Kind)
			continue
		}
		handler(msg)
	}
}

func (s *Session) markDead() {
	s.mu.Lock()
	s.synced = false
	s.users = 0
	s.mu.Unlock()
}
