package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// DefaultRoom is used when the connection path carries no room name.
const DefaultRoom = "default"

// sendBuffer bounds the per-connection outbound queue. A peer that cannot
// drain its queue has frames dropped rather than stalling the room.
const sendBuffer = 64

// Server accepts websocket connections, groups them into rooms by path, and
// forwards structural messages between room members.
type Server struct {
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	defaultRoom string

	mu       sync.Mutex
	registry *Registry
	conns    map[string]*conn
}

type conn struct {
	id   string
	room string
	ws   *websocket.Conn
	send chan Message
}

// NewServer creates a relay server.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		logger:      logger,
		defaultRoom: DefaultRoom,
		upgrader: websocket.Upgrader{
			// The relay does no authentication; origin checks belong to the
			// deployment in front of it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		registry: NewRegistry(),
		conns:    make(map[string]*conn),
	}
}

// SetDefaultRoom changes the room assigned to connections whose path names
// none. Must be called before Serve or Handler; an empty name is ignored.
func (s *Server) SetDefaultRoom(room string) {
	if room != "" {
		s.defaultRoom = room
	}
}

// Handler returns the HTTP handler that upgrades every path to a websocket.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(middleware.Recoverer)
	r.HandleFunc("/*", s.handleWS)
	return r
}

// Serve runs the relay on addr until the context is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	s.logger.Info("starting relay", "addr", addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("relay server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down relay...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// roomFromPath derives the room name from a request path: the first path
// segment, query string excluded. Empty means the fallback room.
func roomFromPath(path, fallback string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return fallback
	}
	return path
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	room := roomFromPath(r.URL.Path, s.defaultRoom)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "room", room, "error", err)
		return
	}

	c := &conn{
		id:   uuid.New().String(),
		room: room,
		ws:   ws,
		send: make(chan Message, sendBuffer),
	}

	s.mu.Lock()
	s.conns[c.id] = c
	outs := s.registry.Join(room, c.id)
	s.deliverLocked(outs)
	count := s.registry.Count(room)
	s.mu.Unlock()

	s.logger.Info("client connected", "room", room, "conn", c.id, "members", count)

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop consumes frames from one client until the connection drops, then
// unregisters it and announces the new membership count.
func (s *Server) readLoop(c *conn) {
	defer func() {
		s.mu.Lock()
		outs := s.registry.Leave(c.room, c.id)
		delete(s.conns, c.id)
		close(c.send)
		s.deliverLocked(outs)
		remaining := s.registry.Count(c.room)
		s.mu.Unlock()

		_ = c.ws.Close()
		s.logger.Info("client disconnected", "room", c.room, "conn", c.id, "remaining", remaining)
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("read error", "conn", c.id, "error", err)
			}
			return
		}

		// Frames that fail to parse are dropped; only transport errors end
		// the connection.
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("dropping malformed frame", "conn", c.id, "error", err)
			continue
		}

		s.mu.Lock()
		s.deliverLocked(s.registry.Broadcast(c.room, c.id, msg))
		s.mu.Unlock()
	}
}

// deliverLocked queues outbound messages onto their connections' send
// channels. Requires s.mu held. Sends never block: a full queue means the
// frame is dropped for that peer only, so one slow connection cannot hold up
// the rest of the room or the accept path.
func (s *Server) deliverLocked(outs []Outbound) {
	for _, o := range outs {
		c, ok := s.conns[o.To]
		if !ok {
			continue
		}
		select {
		case c.send <- o.Msg:
		default:
			s.logger.Debug("send queue full, dropping frame", "conn", o.To, "kind", o.Msg.Kind)
		}
	}
}

func (s *Server) writeLoop(c *conn) {
	for msg := range c.send {
		if err := c.ws.WriteJSON(msg); err != nil {
			s.logger.Debug("write error", "conn", c.id, "error", err)
			// Drain until the read loop notices the dead connection and
			// closes the channel.
			for range c.send {
			}
			return
		}
	}
	// Channel closed by unregister: finish with a close frame.
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
