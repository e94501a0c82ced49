package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ghemawat/stream"
	"github.com/spf13/cobra"

	"github.com/forensicdb/forensicdb/leveldb"
)

// newGrepCmd filters a LevelDB log file's decoded records through a
// Unix-pipe-style stream.Filter, so a regexp can be applied to the
// rendered record lines without the caller writing their own scan loop.
func newGrepCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grep <log-file> <pattern>",
		Short: "Print decoded LevelDB records whose rendering matches a regexp",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening file")
			}
			defer f.Close()

			r, w := io.Pipe()
			go func() {
				defer w.Close()
				br := leveldb.NewBatchReader(f, levelDBReaderOpts(ro)...)
				for {
					batch, ok, err := br.Next()
					if err != nil || !ok {
						return
					}
					for _, rec := range batch.Records {
						printRecord(w, rec)
					}
				}
			}()

			out := cmd.OutOrStdout()
			return stream.Run(
				stream.ReadLines(bufio.NewReader(r)),
				stream.Grep(args[1]),
				stream.ForEach(func(line string) { fmt.Fprintln(out, line) }),
			)
		},
	}
}
