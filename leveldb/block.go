package leveldb

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/varint"
)

// CompressionType tags an SST block trailer's compression scheme.
type CompressionType byte

const (
	CompressionNone   CompressionType = 0
	CompressionSnappy CompressionType = 1
)

const blockTrailerSize = 5 // compression(1) + crc32c(4)

// Decompressor turns a compressed block body back into its raw bytes. The
// caller supplies one (leveldb.SnappyDecompressor, typically) so this
// package never imports a compression library directly.
type Decompressor func(compressed []byte) ([]byte, error)

// BlockEntry is one decoded key/value pair from a block, with its key
// already reconstructed from the shared-prefix encoding.
type BlockEntry struct {
	Key   []byte
	Value []byte
}

// DecodeBlockOptions controls optional block-level verification.
type DecodeBlockOptions struct {
	VerifyChecksum bool
	Decompress     Decompressor
}

// DecodeBlock parses a raw SST block (the bytes a BlockHandle points at,
// trailer included) into its entries. The restart count is used only to find
// where the entry data ends; the restart offsets are not read, and entries at
// restart points are not checked for a zero shared length.
func DecodeBlock(raw []byte, opts DecodeBlockOptions) ([]BlockEntry, error) {
	if len(raw) < blockTrailerSize {
		return nil, errors.Wrapf(ErrTruncation, "block needs %d trailer bytes, got %d", blockTrailerSize, errors.Safe(len(raw)))
	}
	body := raw[:len(raw)-blockTrailerSize]
	trailer := raw[len(raw)-blockTrailerSize:]
	compression := CompressionType(trailer[0])

	if opts.VerifyChecksum {
		want := binary.LittleEndian.Uint32(trailer[1:5])
		got := crc32.Checksum(append([]byte{byte(compression)}, body...), crc32cTable)
		if got != want {
			return nil, errors.Wrapf(ErrInvalidBlock, "block checksum mismatch: got 0x%x, want 0x%x", got, want)
		}
	}

	switch compression {
	case CompressionNone:
	case CompressionSnappy:
		if opts.Decompress == nil {
			return nil, errors.Wrap(ErrMissingDependency, "block is Snappy-compressed but no Decompressor was configured")
		}
		decoded, err := opts.Decompress(body)
		if err != nil {
			return nil, errors.Wrap(err, "decompressing block")
		}
		body = decoded
	default:
		return nil, errors.Wrapf(ErrUnknownEncoding, "unknown block compression type %d", errors.Safe(compression))
	}

	return decodeBlockEntries(body)
}

// decodeBlockEntries walks the restart-delimited entry stream, reassembling
// each key from its shared prefix with the previous key.
func decodeBlockEntries(body []byte) ([]BlockEntry, error) {
	if len(body) < 4 {
		return nil, errors.Wrap(ErrTruncation, "block body too short for a restart count")
	}
	restartCount := int(binary.LittleEndian.Uint32(body[len(body)-4:]))
	restartArrayStart := len(body) - 4 - restartCount*4
	if restartArrayStart < 0 {
		return nil, errors.Wrapf(ErrInvalidBlock, "restart count %d too large for block of %d bytes", errors.Safe(restartCount), errors.Safe(len(body)))
	}
	entryData := body[:restartArrayStart]

	var entries []BlockEntry
	var prevKey []byte
	off := 0
	for off < len(entryData) {
		shared, n1, err := varint.Protobuf(entryData, off)
		if err != nil {
			return nil, errors.Wrap(err, "block entry: shared key length")
		}
		off += n1
		nonShared, n2, err := varint.Protobuf(entryData, off)
		if err != nil {
			return nil, errors.Wrap(err, "block entry: non-shared key length")
		}
		off += n2
		valueLen, n3, err := varint.Protobuf(entryData, off)
		if err != nil {
			return nil, errors.Wrap(err, "block entry: value length")
		}
		off += n3

		if int(shared) > len(prevKey) {
			return nil, errors.Wrapf(ErrInvalidBlock, "entry shared length %d exceeds previous key length %d", errors.Safe(shared), errors.Safe(len(prevKey)))
		}
		if off+int(nonShared) > len(entryData) {
			return nil, errors.Wrapf(ErrTruncation, "entry key suffix needs %d bytes, %d available", errors.Safe(nonShared), errors.Safe(len(entryData)-off))
		}
		key := make([]byte, 0, int(shared)+int(nonShared))
		key = append(key, prevKey[:shared]...)
		key = append(key, entryData[off:off+int(nonShared)]...)
		off += int(nonShared)

		if off+int(valueLen) > len(entryData) {
			return nil, errors.Wrapf(ErrTruncation, "entry value needs %d bytes, %d available", errors.Safe(valueLen), errors.Safe(len(entryData)-off))
		}
		value := entryData[off : off+int(valueLen)]
		off += int(valueLen)

		entries = append(entries, BlockEntry{Key: key, Value: value})
		prevKey = key
	}
	return entries, nil
}
