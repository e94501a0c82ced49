package sqlite3

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

// TestDecodeRecordDataDriven exercises decodeRecord against hand-built
// payload fixtures, one per testdata/record case: a "decode" command takes
// a hex-encoded payload and prints one decoded value per line.
func TestDecodeRecordDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/record", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "decode":
			var hexLine string
			for _, line := range strings.Split(d.Input, "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				hexLine = line
			}
			payload, err := hex.DecodeString(hexLine)
			require.NoError(t, err)
			rec, err := decodeRecord(payload, EncodingUTF8)
			require.NoError(t, err)
			var out strings.Builder
			for _, v := range rec.Values {
				fmt.Fprintf(&out, "%v\n", v)
			}
			return out.String()
		default:
			t.Fatalf("unknown command %q", d.Cmd)
			return ""
		}
	})
}
