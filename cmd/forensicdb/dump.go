package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
)

// newDumpCmd prints a SQLite page's decoded structure with kr/pretty,
// useful for inspecting a single page without materializing rows.
func newDumpCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <database-file> <page-number>",
		Short: "Pretty-print one decoded SQLite page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, f, err := openSQLite(ro, args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var n uint32
			if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil {
				return errors.Wrapf(err, "parsing page number %q", args[1])
			}
			page, err := db.Page(n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.Sprint(page))
			return nil
		},
	}
}
