package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/relay"
)

// NewRelayCommand creates the relay command.
func NewRelayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Run the broadcast relay",
		Long: `Run the standalone broadcast relay.

Collaborators connect over websocket at ws://host:port/<canvas-id> and every
message is forwarded to the other members of the same canvas room. The relay
holds no canvas state of its own.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := getLogger(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := relay.NewServer(logger)
			srv.SetDefaultRoom(cfg.Relay.DefaultRoom)
			return srv.Serve(ctx, cfg.Relay.Addr)
		},
	}
}
