package leveldb

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeChunk appends one log chunk (header + payload) to buf.
func writeChunk(buf *bytes.Buffer, typ chunkType, payload []byte) {
	var header [logChunkHeaderSize]byte
	crc := crc32.Checksum(append([]byte{byte(typ)}, payload...), crc32cTable)
	binary.LittleEndian.PutUint32(header[0:4], crc)
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(payload)))
	header[6] = byte(typ)
	buf.Write(header[:])
	buf.Write(payload)
}

func readerAt(b []byte) *bytes.Reader { return bytes.NewReader(b) }

func TestLogReaderSingleFullChunk(t *testing.T) {
	var buf bytes.Buffer
	writeChunk(&buf, chunkFull, []byte("hello"))

	lr := NewLogReader(readerAt(buf.Bytes()))
	payload, ok, err := lr.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), payload)

	_, ok, err = lr.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLogReaderFirstMiddleLast(t *testing.T) {
	var buf bytes.Buffer
	writeChunk(&buf, chunkFirst, []byte("ab"))
	writeChunk(&buf, chunkMiddle, []byte("cd"))
	writeChunk(&buf, chunkLast, []byte("ef"))

	lr := NewLogReader(readerAt(buf.Bytes()))
	payload, ok, err := lr.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("abcdef"), payload)
}

func TestLogReaderFirstDiscardsPendingOnNewFirst(t *testing.T) {
	var buf bytes.Buffer
	writeChunk(&buf, chunkFirst, []byte("stale"))
	writeChunk(&buf, chunkFirst, []byte("fresh-"))
	writeChunk(&buf, chunkLast, []byte("data"))

	lr := NewLogReader(readerAt(buf.Bytes()))
	payload, ok, err := lr.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("fresh-data"), payload)
}

func TestLogReaderChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	writeChunk(&buf, chunkFull, []byte("hello"))
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xff // flip a payload byte after the header

	lr := NewLogReader(readerAt(corrupted), WithChecksumVerification())
	_, _, err := lr.Next()
	require.ErrorIs(t, err, ErrInvalidBlock)
}

func TestBatchReaderDecodesRecords(t *testing.T) {
	var payload bytes.Buffer
	var seqBuf [8]byte
	binary.LittleEndian.PutUint64(seqBuf[:], 42)
	payload.Write(seqBuf[:])
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], 2)
	payload.Write(countBuf[:])

	// LogRecord 1: live, key "k1", value "v1".
	payload.WriteByte(logStateLive)
	payload.WriteByte(2) // key len
	payload.WriteString("k1")
	payload.WriteByte(2) // value len
	payload.WriteString("v1")
	// LogRecord 2: deleted, key "k2".
	payload.WriteByte(logStateDeleted)
	payload.WriteByte(2)
	payload.WriteString("k2")

	var buf bytes.Buffer
	writeChunk(&buf, chunkFull, payload.Bytes())

	br := NewBatchReader(readerAt(buf.Bytes()))
	batch, ok, err := br.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), batch.SeqNum)
	require.Len(t, batch.Records, 2)
	require.Equal(t, StateLive, batch.Records[0].State)
	require.Equal(t, "k1", string(batch.Records[0].Key))
	require.Equal(t, "v1", string(batch.Records[0].Value))
	require.Equal(t, uint64(42), batch.Records[0].Seq())
	require.Equal(t, StateDeleted, batch.Records[1].State)
	require.Equal(t, uint64(43), batch.Records[1].Seq())
}
