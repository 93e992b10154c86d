package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/store"
)

// NewCanvasCommand creates the canvas command group.
func NewCanvasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canvas",
		Short: "Manage saved canvases",
	}

	cmd.AddCommand(newCanvasListCommand())
	cmd.AddCommand(newCanvasDeleteCommand())
	cmd.AddCommand(newCanvasRenameCommand())

	return cmd
}

// openStore opens the configured canvas store.
func openStore(cmd *cobra.Command) (*store.SQLiteStore, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}

	st := store.NewSQLiteStore()
	if err := st.Open(cfg.Store.Path); err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func newCanvasListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved canvases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			records, err := st.ListCanvases()
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved canvases")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Nodes", "Edges", "Updated"})
			for _, rec := range records {
				t.AppendRow(table.Row{
					rec.ID, rec.Name, len(rec.Nodes), len(rec.Edges),
					rec.UpdatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			t.Render()
			return nil
		},
	}
}

func newCanvasDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.DeleteCanvas(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted canvas %s\n", args[0])
			return nil
		},
	}
}

func newCanvasRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a saved canvas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.RenameCanvas(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed canvas %s to %q\n", args[0], args[1])
			return nil
		},
	}
}
