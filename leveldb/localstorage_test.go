package leveldb

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/forensicdb/forensicdb/internal/varint"
)

func TestParseKeyFamilies(t *testing.T) {
	meta, err := ParseKey([]byte("META:example.com"))
	require.NoError(t, err)
	require.Equal(t, KeyMeta, meta.Kind)
	require.Equal(t, "example.com", meta.Host)

	access, err := ParseKey([]byte("METAACCESS:example.com"))
	require.NoError(t, err)
	require.Equal(t, KeyMetaAccess, access.Kind)
	require.Equal(t, "example.com", access.Host)

	rec, err := ParseKey([]byte("_example.com\x00\x01itemname"))
	require.NoError(t, err)
	require.Equal(t, KeyRecord, rec.Kind)
	require.Equal(t, "example.com", rec.Host)
	require.Equal(t, "itemname", rec.Name)

	unknown, err := ParseKey([]byte("garbage"))
	require.NoError(t, err)
	require.Equal(t, KeyUnknown, unknown.Kind)
}

// TestParseKeyRecordUTF16LE exercises scenario S9: a record key whose name
// is UTF-16LE encoded (_https://example.com\x00\x00k\x00e\x00y -> "key").
func TestParseKeyRecordUTF16LE(t *testing.T) {
	raw := append([]byte("_https://example.com\x00"), byte(EncodingUTF16LE))
	for _, r := range "key" {
		raw = append(raw, byte(r), 0x00)
	}
	k, err := ParseKey(raw)
	require.NoError(t, err)
	require.Equal(t, KeyRecord, k.Kind)
	require.Equal(t, "https://example.com", k.Host)
	require.Equal(t, "key", k.Name)
}

func TestParseKeyRecordUnknownEncoding(t *testing.T) {
	_, err := ParseKey([]byte("_example.com\x00\x7fbad"))
	require.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestDecodeValueUTF16LE(t *testing.T) {
	units := utf16.Encode([]rune("hi"))
	raw := []byte{byte(EncodingUTF16LE)}
	for _, u := range units {
		raw = append(raw, byte(u), byte(u>>8))
	}
	got, err := DecodeValue(raw)
	require.NoError(t, err)
	require.Equal(t, "hi", got)
}

func TestDecodeValueLatin1(t *testing.T) {
	raw := []byte{byte(EncodingLatin1), 'h', 'i'}
	got, err := DecodeValue(raw)
	require.NoError(t, err)
	require.Equal(t, "hi", got)
}

func TestDecodeValueUnknownEncoding(t *testing.T) {
	_, err := DecodeValue([]byte{0x7f, 'x'})
	require.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestStoreApply(t *testing.T) {
	s := NewStore()
	s.Apply(Record{
		State: StateLive,
		Key:   []byte("_example.com\x00\x01color"),
		Value: append([]byte{byte(EncodingLatin1)}, "blue"...),
	})
	require.Equal(t, "blue", s.Hosts["example.com"]["color"])
}

func TestStoreApplyWriteMetadata(t *testing.T) {
	value := varint.AppendProtobuf([]byte{0x08}, 12345) // lm_type tag + last_modified
	value = append(value, 0x10)                         // sb_type tag
	value = varint.AppendProtobuf(value, 678)

	s := NewStore()
	s.Apply(Record{State: StateLive, Key: []byte("META:example.com"), Value: value})
	require.Equal(t, WriteMetadata{LastModified: 12345, SizeBytes: 678}, s.WriteMeta["example.com"])
}

func TestStoreApplyAccessMetadata(t *testing.T) {
	value := varint.AppendProtobuf([]byte{0x08}, 999) // la_type tag + last_accessed

	s := NewStore()
	s.Apply(Record{State: StateLive, Key: []byte("METAACCESS:example.com"), Value: value})
	require.Equal(t, AccessMetadata{LastAccessed: 999}, s.AccessMeta["example.com"])
}
