package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quarrylabs/quarry/internal/adapter"
	"github.com/quarrylabs/quarry/internal/canvas"
	"github.com/quarrylabs/quarry/internal/collab"
	"github.com/quarrylabs/quarry/internal/config"
	"github.com/quarrylabs/quarry/internal/engine"
	"github.com/quarrylabs/quarry/internal/ingest"
	"github.com/quarrylabs/quarry/internal/relay"
	"github.com/quarrylabs/quarry/internal/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the full Quarry stack",
		Long: `Run the relay, the data ingestion watcher, and a headless execution
session in one process.

The headless session joins the configured room, mirrors the shared canvas,
and executes query cells marked for execution, broadcasting result previews
back to collaborators. The canvas is snapshotted to the store on shutdown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := getLogger(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Canvas store
	st := store.NewSQLiteStore()
	if err := st.Open(cfg.Store.Path); err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	if err := st.Migrate(); err != nil {
		return err
	}

	// Analytical engine
	db := adapter.NewDuckDB(cfg.Database.Path, logger)
	if err := db.Init(ctx); err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cfg.Data.Sample {
		if err := db.SeedSampleData(ctx); err != nil {
			return err
		}
	}

	room := cfg.Collab.Room
	cv, rec, err := loadOrCreateCanvas(st, room)
	if err != nil {
		return err
	}
	if cv.NodeCount() > 0 {
		logger.Info("canvas restored", "canvas", rec.ID, "nodes", cv.NodeCount())
	}
	eng := engine.New(db, cv, logger)

	g, ctx := errgroup.WithContext(ctx)

	// Relay
	g.Go(func() error {
		srv := relay.NewServer(logger)
		srv.SetDefaultRoom(cfg.Relay.DefaultRoom)
		return srv.Serve(ctx, cfg.Relay.Addr)
	})

	// Data ingestion, skipped when the directory doesn't exist
	if _, err := os.Stat(cfg.Data.Dir); err == nil {
		w := ingest.NewWatcher(cfg.Data.Dir, db, logger)
		g.Go(func() error {
			return w.Run(ctx)
		})
	} else {
		logger.Info("data directory not found, ingestion disabled", "dir", cfg.Data.Dir)
	}

	// Headless execution session against our own relay
	g.Go(func() error {
		session, err := dialWithRetry(ctx, collab.Config{
			URL:      relayURL(cfg),
			Room:     room,
			Debounce: time.Duration(cfg.Collab.DebounceMS) * time.Millisecond,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer func() { _ = session.Close() }()

		collab.BindCanvas(session, cv)
		eng.SetBroadcaster(session)

		// Override the node handler: mirror the node, then execute query
		// cells flagged for execution and share the updated cell back.
		session.Handle(relay.KindNode, func(msg relay.Message) {
			if msg.Node == nil {
				return
			}
			node := *msg.Node
			cv.UpsertNode(node)

			if node.Kind != canvas.KindQuery || !node.Data.IsExecuting {
				return
			}
			go func() {
				if err := eng.RunNode(ctx, node.ID); err != nil {
					logger.Warn("cell execution failed", "node", node.ID, "error", err)
				}
				if updated, ok := cv.Node(node.ID); ok {
					session.SyncNode(updated)
				}
			}()
		})

		<-ctx.Done()
		return nil
	})

	err = g.Wait()

	// Persist the final canvas state.
	if snapErr := st.Snapshot(cv, rec.ID); snapErr != nil {
		logger.Warn("failed to snapshot canvas", "canvas", rec.ID, "error", snapErr)
	} else {
		logger.Info("canvas snapshotted", "canvas", rec.ID, "nodes", cv.NodeCount())
	}

	return err
}

// loadOrCreateCanvas resumes the saved canvas for the room, creating the
// record on first run. Re-runs against the same room reuse one record.
func loadOrCreateCanvas(st *store.SQLiteStore, room string) (*canvas.Canvas, *store.CanvasRecord, error) {
	rec, err := st.GetCanvasByName(room)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		rec, err = st.CreateCanvas(room, nil, nil)
		if err != nil {
			return nil, nil, err
		}
		return canvas.New(room), rec, nil
	}

	cv, err := st.Restore(rec.ID)
	if err != nil {
		return nil, nil, err
	}
	return cv, rec, nil
}

// relayURL derives the websocket URL for the in-process relay, honoring an
// explicit collab URL when configured.
func relayURL(cfg *config.Config) string {
	if cfg.Collab.URL != "" {
		return cfg.Collab.URL
	}
	host, port, err := net.SplitHostPort(cfg.Relay.Addr)
	if err != nil {
		return "ws://127.0.0.1" + cfg.Relay.Addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("ws://%s:%s", host, port)
}

// dialWithRetry dials the relay, retrying briefly while it starts listening.
func dialWithRetry(ctx context.Context, cfg collab.Config) (*collab.Session, error) {
	var lastErr error
	for i := 0; i < 50; i++ {
		session, err := collab.Dial(ctx, cfg)
		if err == nil {
			return session, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("failed to connect to relay: %w", lastErr)
}
