package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/connector"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// tablesSQL lists user tables. information_schema is understood by both
// connectors.
const tablesSQL = `SELECT table_name, table_type
FROM information_schema.tables
WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
ORDER BY table_name`

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the analytical database",
		Long: `Run SQL against the configured analytical database.

Useful for inspecting ingested data files and materialized cell references
outside the canvas. Supports multiple output formats for scripting.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  quarry query "SELECT * FROM customers"

  # List available tables
  quarry query tables

  # Output as JSON
  quarry query "SELECT * FROM orders" --format json

  # Interactive mode
  quarry query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))

	return cmd
}

// openConnector connects to the configured analytical database.
func openConnector(cmd *cobra.Command) (connector.Connector, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}

	conn, err := connector.NewConnector(cfg.Database.ToConnectorConfig())
	if err != nil {
		return nil, err
	}
	if err := conn.Connect(cmd.Context(), cfg.Database.ToConnectorConfig()); err != nil {
		return nil, err
	}
	return conn, nil
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return runQueryREPL(cmd, opts)
	}

	conn, err := openConnector(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return executeAndRender(cmd.Context(), cmd, conn, sqlQuery, opts.Format)
}

func executeAndRender(ctx context.Context, cmd *cobra.Command, conn connector.Connector, sqlQuery, format string) error {
	res, err := conn.Query(ctx, sqlQuery)
	if err != nil {
		return err
	}
	return renderResult(cmd.OutOrStdout(), res, format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the analytical database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := openConnector(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			return executeAndRender(cmd.Context(), cmd, conn, tablesSQL, opts.Format)
		},
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
