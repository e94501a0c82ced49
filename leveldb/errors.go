// Package leveldb decodes the on-disk LevelDB representation — log files,
// sorted tables (.ldb/.sst) and the LocalStorage key convention layered on
// top — directly from bytes, without requiring a clean database or a write
// path. See spec §3/§4.4.
package leveldb

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidDatabase is returned when an SST footer's magic number
	// doesn't match, or another top-level structural check fails.
	ErrInvalidDatabase = errors.New("leveldb: invalid database")

	// ErrInvalidBlock covers structural violations within a block: a
	// shared_len exceeding the previous key's length, a malformed restart
	// array, or a block trailer checksum mismatch.
	ErrInvalidBlock = errors.New("leveldb: invalid block")

	// ErrMissingDependency is returned when a block requires Snappy
	// decompression but no Decompressor was configured.
	ErrMissingDependency = errors.New("leveldb: missing dependency")

	// ErrTruncation is returned for a short read where more bytes were
	// expected.
	ErrTruncation = errors.New("leveldb: short read")

	// ErrUnknownEncoding is returned by the LocalStorage key decoder for an
	// encoding tag outside {0x00, 0x01}, per spec §9 Open Question (b):
	// rather than leaving a value uninitialized, surface an explicit error.
	ErrUnknownEncoding = errors.New("leveldb: unknown LocalStorage encoding tag")
)
