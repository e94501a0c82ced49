package leveldb

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// SnappyDecompressor is a Decompressor backed by github.com/golang/snappy,
// decoding a single raw Snappy block (no framing), matching the way
// LevelDB compresses individual SST blocks rather than a byte stream (spec
// §9 Open Question (d)).
func SnappyDecompressor(compressed []byte) ([]byte, error) {
	decoded, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrap(err, "leveldb: snappy decode")
	}
	return decoded, nil
}
