// Command forensicdb is a read-only forensic inspector for SQLite3 and
// LevelDB on-disk files: it opens a file by path, decodes its structure
// directly from bytes, and prints what it finds. It never opens a database
// for writing and never requires a clean shutdown of the source file.
package main

import (
	"fmt"
	"os"

	"github.com/forensicdb/forensicdb/internal/forensiclog"
)

func main() {
	log, err := forensiclog.NewZap()
	if err != nil {
		fmt.Fprintln(os.Stderr, "forensicdb: logger init:", err)
		os.Exit(1)
	}
	if err := newRootCmd(log).Execute(); err != nil {
		os.Exit(1)
	}
}
