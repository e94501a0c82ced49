package leveldb

import (
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// ChecksumType tags the checksum algorithm recorded in an SST footer's
// extended (RocksDB/Pebble-style) form. Plain LevelDB tables always use
// crc32c, handled directly in block.go; xxHash64 is offered here for SSTs
// produced by engines in the pack that support it.
type ChecksumType byte

const (
	ChecksumCRC32c  ChecksumType = 0
	ChecksumXXHash64 ChecksumType = 1
)

// VerifyXXHash64 checks data (block body plus the leading type byte) against
// an expected xxHash64 checksum, for callers that opted into the extended
// checksum format instead of plain crc32c.
func VerifyXXHash64(typeByte byte, body []byte, want uint64) error {
	h := xxhash.New()
	h.Write([]byte{typeByte})
	h.Write(body)
	got := h.Sum64()
	if got != want {
		return errors.Wrapf(ErrInvalidBlock, "xxhash64 mismatch: got 0x%x, want 0x%x", got, want)
	}
	return nil
}
