package leveldb

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/forensicdb/forensicdb/internal/varint"
	"github.com/stretchr/testify/require"
)

func buildFooter(meta, index BlockHandle) []byte {
	buf := make([]byte, 0, sstFooterSize)
	buf = varint.AppendProtobuf(buf, meta.Offset)
	buf = varint.AppendProtobuf(buf, meta.Length)
	buf = varint.AppendProtobuf(buf, index.Offset)
	buf = varint.AppendProtobuf(buf, index.Length)
	for len(buf) < sstFooterSize-8 {
		buf = append(buf, 0)
	}
	var magic [8]byte
	binary.LittleEndian.PutUint64(magic[:], sstMagicLE)
	return append(buf[:sstFooterSize-8], magic[:]...)
}

func TestParseFooterRoundTrip(t *testing.T) {
	footerBytes := buildFooter(BlockHandle{Offset: 0, Length: 100}, BlockHandle{Offset: 100, Length: 50})
	f, err := parseFooter(footerBytes)
	require.NoError(t, err)
	require.Equal(t, uint64(0), f.MetaIndex.Offset)
	require.Equal(t, uint64(100), f.MetaIndex.Length)
	require.Equal(t, uint64(100), f.Index.Offset)
	require.Equal(t, uint64(50), f.Index.Length)
}

func TestParseFooterBadMagic(t *testing.T) {
	footerBytes := buildFooter(BlockHandle{}, BlockHandle{})
	footerBytes[len(footerBytes)-1] ^= 0xff
	_, err := parseFooter(footerBytes)
	require.ErrorIs(t, err, ErrInvalidDatabase)
}

func TestOpenTableReadsFooter(t *testing.T) {
	dataBlock := buildBlock(t, []BlockEntry{{Key: []byte("k"), Value: []byte("v")}})
	footerBytes := buildFooter(BlockHandle{Offset: 0, Length: 0}, BlockHandle{Offset: uint64(len(dataBlock)), Length: uint64(len(dataBlock))})

	var file bytes.Buffer
	file.Write(dataBlock)
	// a second copy of dataBlock stands where the footer's index handle
	// points; only the footer is checked below.
	file.Write(dataBlock)
	file.Write(footerBytes)

	table, err := OpenTable(bytes.NewReader(file.Bytes()), int64(file.Len()))
	require.NoError(t, err)
	require.Equal(t, uint64(len(dataBlock)), table.Footer.Index.Offset)
}

func TestRecordFromEntryShortKey(t *testing.T) {
	rec := RecordFromEntry(BlockEntry{Key: []byte("abc"), Value: []byte("v")})
	require.Equal(t, StateUnknown, rec.State)
	require.False(t, rec.HasSequence)
}

func TestRecordFromEntryWithTrailer(t *testing.T) {
	key := []byte("userkey")
	var trailer [8]byte
	seq := uint64(7)
	binary.LittleEndian.PutUint64(trailer[:], (seq<<8)|uint64(StateLive))
	full := append(append([]byte(nil), key...), trailer[:]...)
	rec := RecordFromEntry(BlockEntry{Key: full, Value: []byte("v")})
	require.Equal(t, StateLive, rec.State)
	require.True(t, rec.HasSequence)
	require.Equal(t, uint64(7), rec.Sequence)
	require.Equal(t, "userkey", string(rec.Key))
	require.Equal(t, "v", string(rec.Value))
}

func TestRecordFromEntryDeleted(t *testing.T) {
	key := []byte("userkey")
	var trailer [8]byte
	binary.LittleEndian.PutUint64(trailer[:], 7<<8) // low byte 0 = DELETED
	full := append(append([]byte(nil), key...), trailer[:]...)
	rec := RecordFromEntry(BlockEntry{Key: full, Value: []byte("v")})
	require.Equal(t, StateDeleted, rec.State)
	require.Nil(t, rec.Value)
}

// TestRecordFromEntryNonstandardLiveByte covers spec §3's "0 = DELETED,
// else LIVE": a trailer byte that isn't the upstream LevelDB kTypeValue (1)
// still means LIVE, not StateUnknown.
func TestRecordFromEntryNonstandardLiveByte(t *testing.T) {
	key := []byte("userkey")
	var trailer [8]byte
	binary.LittleEndian.PutUint64(trailer[:], (3<<8)|0x2a)
	full := append(append([]byte(nil), key...), trailer[:]...)
	rec := RecordFromEntry(BlockEntry{Key: full, Value: []byte("v")})
	require.Equal(t, StateLive, rec.State)
	require.Equal(t, "v", string(rec.Value))
}
