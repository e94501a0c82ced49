package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/forensicdb/forensicdb/leveldb"
)

func newLevelDBCmd(ro *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leveldb",
		Short: "Inspect a LevelDB log file or sorted table",
	}
	cmd.AddCommand(newLevelDBScanCmd(ro), newLevelDBLocalStorageCmd(ro))
	return cmd
}

func levelDBReaderOpts(ro *rootOptions) []leveldb.LogReaderOption {
	if ro.cfg.VerifyChecksums {
		return []leveldb.LogReaderOption{leveldb.WithChecksumVerification()}
	}
	return nil
}

func newLevelDBScanCmd(ro *rootOptions) *cobra.Command {
	var sst bool
	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Print every record found in a .log file or a .ldb/.sst table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening file")
			}
			defer f.Close()
			out := cmd.OutOrStdout()

			if sst {
				info, err := f.Stat()
				if err != nil {
					return errors.Wrap(err, "stat")
				}
				var opts []leveldb.TableOption
				if ro.cfg.VerifyChecksums {
					opts = append(opts, leveldb.WithTableChecksumVerification())
				}
				opts = append(opts, leveldb.WithTableDecompressor(leveldb.SnappyDecompressor))
				table, err := leveldb.OpenTable(f, info.Size(), opts...)
				if err != nil {
					return err
				}
				index, err := table.Index()
				if err != nil {
					return err
				}
				for _, idxEntry := range index {
					h, _, err := leveldb.DecodeBlockHandle(idxEntry.Value)
					if err != nil {
						return err
					}
					entries, err := table.DataBlock(h)
					if err != nil {
						return err
					}
					for _, e := range entries {
						rec := leveldb.RecordFromEntry(e)
						printRecord(out, rec)
					}
				}
				return nil
			}

			br := leveldb.NewBatchReader(f, levelDBReaderOpts(ro)...)
			for {
				batch, ok, err := br.Next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				for _, rec := range batch.Records {
					printRecord(out, rec)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sst, "sst", false, "treat the file as a sorted table (.ldb/.sst) instead of a log file")
	return cmd
}

func printRecord(out io.Writer, rec leveldb.Record) {
	if rec.State == leveldb.StateDeleted {
		fmt.Fprintf(out, "seq=%d DELETE %q\n", rec.Seq(), rec.Key)
		return
	}
	fmt.Fprintf(out, "seq=%d PUT %q = %q\n", rec.Seq(), rec.Key, rec.Value)
}

func newLevelDBLocalStorageCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "localstorage <log-file>",
		Short: "Replay a log file's records into the Chromium LocalStorage key convention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening file")
			}
			defer f.Close()

			br := leveldb.NewBatchReader(f, levelDBReaderOpts(ro)...)
			store := leveldb.NewStore()
			for {
				batch, ok, err := br.Next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				for _, rec := range batch.Records {
					store.Apply(rec)
				}
			}
			out := cmd.OutOrStdout()
			for host, items := range store.Hosts {
				fmt.Fprintf(out, "%s:\n", host)
				for name, value := range items {
					fmt.Fprintf(out, "  %s = %s\n", name, value)
				}
			}
			return nil
		},
	}
}
