package leveldb

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/forensicdb/forensicdb/internal/varint"
	"github.com/stretchr/testify/require"
)

// buildBlock encodes entries as a raw, uncompressed block (body plus the
// 5-byte trailer), with every entry as its own restart point for simplicity.
func buildBlock(t *testing.T, entries []BlockEntry) []byte {
	t.Helper()
	var body bytes.Buffer
	var restarts []uint32
	var prevKey []byte
	for _, e := range entries {
		restarts = append(restarts, uint32(body.Len()))
		shared := commonPrefixLen(prevKey, e.Key)
		nonShared := e.Key[shared:]
		body.Write(varint.AppendProtobuf(nil, uint64(shared)))
		body.Write(varint.AppendProtobuf(nil, uint64(len(nonShared))))
		body.Write(varint.AppendProtobuf(nil, uint64(len(e.Value))))
		body.Write(nonShared)
		body.Write(e.Value)
		prevKey = e.Key
	}
	for _, r := range restarts {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], r)
		body.Write(b[:])
	}
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(restarts)))
	body.Write(countBuf[:])

	raw := append(body.Bytes(), byte(CompressionNone))
	raw = append(raw, 0, 0, 0, 0) // checksum unused in this test
	return raw
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func TestDecodeBlockSharedPrefix(t *testing.T) {
	entries := []BlockEntry{
		{Key: []byte("tweedledee"), Value: []byte("1")},
		{Key: []byte("tweedledum"), Value: []byte("2")},
		{Key: []byte("two"), Value: []byte("3")},
	}
	raw := buildBlock(t, entries)
	got, err := DecodeBlock(raw, DecodeBlockOptions{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range entries {
		require.Equal(t, string(e.Key), string(got[i].Key))
		require.Equal(t, string(e.Value), string(got[i].Value))
	}
}

func TestDecodeBlockSharedLenExceedsPrevKey(t *testing.T) {
	// Hand-construct a single malformed entry: shared=5 but there is no
	// previous key at all.
	var body bytes.Buffer
	body.Write(varint.AppendProtobuf(nil, 5))
	body.Write(varint.AppendProtobuf(nil, 2))
	body.Write(varint.AppendProtobuf(nil, 0))
	body.WriteString("ab")
	var restart [4]byte
	binary.LittleEndian.PutUint32(restart[:], 0)
	body.Write(restart[:])
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], 1)
	body.Write(count[:])

	raw := append(body.Bytes(), byte(CompressionNone), 0, 0, 0, 0)
	_, err := DecodeBlock(raw, DecodeBlockOptions{})
	require.ErrorIs(t, err, ErrInvalidBlock)
}

func TestDecodeBlockMissingDecompressor(t *testing.T) {
	raw := []byte{byte(CompressionSnappy), 0, 0, 0, 0}
	_, err := DecodeBlock(raw, DecodeBlockOptions{})
	require.ErrorIs(t, err, ErrMissingDependency)
}
