package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/config"
)

// ConfigKey is the context key under which the root command stores the
// loaded configuration.
type ConfigKey struct{}

// LoggerKey is the context key under which the root command stores the
// logger.
type LoggerKey struct{}

// getConfig retrieves the configuration from the command context, loading
// defaults when the command runs outside the root (tests).
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg, ok := cmd.Context().Value(ConfigKey{}).(*config.Config); ok {
		return cfg, nil
	}
	return config.Load("", nil)
}

// getLogger retrieves the logger from the command context.
func getLogger(cmd *cobra.Command) *slog.Logger {
	if l, ok := cmd.Context().Value(LoggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
