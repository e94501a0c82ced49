// Package testutil provides small helpers shared by this module's test
// files: golden-file comparison rendered as a unified diff.
package testutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// CompareGolden compares got against the contents of the golden file at
// path. With UPDATE_GOLDEN=1 in the environment it rewrites the file
// instead of comparing. On mismatch it returns a unified diff as the error
// text.
func CompareGolden(path string, got string) error {
	if os.Getenv("UPDATE_GOLDEN") == "1" {
		return os.WriteFile(path, []byte(got), 0o644)
	}
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading golden file %s: %w", path, err)
	}
	if got == string(want) {
		return nil
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(want)),
		B:        difflib.SplitLines(got),
		FromFile: path,
		ToFile:   "got",
		Context:  3,
	})
	return fmt.Errorf("golden mismatch for %s:\n%s", path, strings.TrimRight(diff, "\n"))
}
