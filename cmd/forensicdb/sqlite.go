package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/forensicdb/forensicdb/sqlite3"
)

func newSQLiteCmd(ro *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlite",
		Short: "Inspect a SQLite3 database file",
	}
	cmd.AddCommand(newSQLiteTablesCmd(ro), newSQLiteRowsCmd(ro), newSQLiteWALCmd(ro))
	return cmd
}

func openSQLite(ro *rootOptions, path string) (*sqlite3.Database, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening database file")
	}
	db, err := sqlite3.Open(f,
		sqlite3.WithPageCacheCapacity(ro.cfg.PageCacheCapacity),
		sqlite3.WithLogger(ro.log),
	)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return db, f, nil
}

func newSQLiteTablesCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables <database-file>",
		Short: "List the tables recorded in sqlite_master",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, f, err := openSQLite(ro, args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			tables, err := db.Tables()
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Name", "Root Page", "Primary Key", "Columns"})
			for _, t := range tables {
				names := make([]string, len(t.Columns))
				for i, c := range t.Columns {
					names[i] = c.Name
				}
				table.Append([]string{t.Name, fmt.Sprint(t.RootPage), t.PrimaryKey, fmt.Sprint(names)})
			}
			table.Render()
			return nil
		},
	}
}

func newSQLiteRowsCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rows <database-file> <table>",
		Short: "Print every row materialized from a table's B-tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, f, err := openSQLite(ro, args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			tbl, err := db.Table(args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return db.Rows(tbl, func(row sqlite3.Row) error {
				fmt.Fprintf(out, "rowid=%d %v\n", row.RowID, row.Values)
				return nil
			})
		},
	}
}

func newSQLiteWALCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wal <database-file> <wal-file>",
		Short: "Summarize WAL checkpoints and frame-count history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, f, err := openSQLite(ro, args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			walFile, err := os.Open(args[1])
			if err != nil {
				return errors.Wrap(err, "opening WAL file")
			}
			defer walFile.Close()

			wal, err := sqlite3.OpenWAL(walFile, sqlite3.WithWALFrameCacheCapacity(ro.cfg.WALCacheCapacity))
			if err != nil {
				return err
			}
			db.AttachWAL(wal)

			checkpoints, err := db.Checkpoints()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			sizes := make([]float64, len(checkpoints))
			for i, cp := range checkpoints {
				fmt.Fprintf(out, "checkpoint %d: %d frames, %d distinct pages\n", i, len(cp.Frames), len(cp.Pages))
				sizes[i] = float64(len(cp.Frames))
			}
			if len(sizes) > 1 {
				fmt.Fprintln(out, asciigraph.Plot(sizes, asciigraph.Height(10), asciigraph.Caption("frames per checkpoint")))
			}
			return nil
		},
	}
}
