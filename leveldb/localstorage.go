package leveldb

import (
	"bytes"
	"unicode/utf16"

	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/varint"
)

// Chromium's LevelDB-backed LocalStorage layers a key convention on top of
// the raw LevelDB keyspace (spec §4.4): per-origin META: write-metadata
// keys, per-origin METAACCESS: access-time keys, and per-origin records
// carrying an explicit encoding tag. Rather than sniff a key's shape with
// duck typing, KeyKind gives each family its own tagged variant (spec §9
// DESIGN NOTES, replacing the source's "decide by trying" dispatch).
type KeyKind int

const (
	KeyUnknown KeyKind = iota
	KeyMeta
	KeyMetaAccess
	KeyRecord
)

var (
	metaPrefix       = []byte("META:")
	metaAccessPrefix = []byte("METAACCESS:")
	recordPrefix     = []byte("_")
)

// Key is a decoded LocalStorage key: its kind plus the fields meaningful to
// that kind.
type Key struct {
	Kind KeyKind
	Raw  []byte

	// Host is populated for KeyMeta, KeyMetaAccess and KeyRecord.
	Host string
	// Name is the storage item's name, populated for KeyRecord only.
	Name string
}

// Encoding tags a LocalStorage value's string encoding (spec §4.4).
type Encoding byte

const (
	EncodingUTF16LE Encoding = 0x00
	EncodingLatin1  Encoding = 0x01
)

// ParseKey dispatches raw on its family prefix into a tagged Key. A
// KeyRecord's name carries its own encoding tag byte (same convention as a
// record's value), so parsing it can fail the same way DecodeValue can.
func ParseKey(raw []byte) (Key, error) {
	switch {
	case bytes.HasPrefix(raw, metaAccessPrefix):
		return Key{Kind: KeyMetaAccess, Raw: raw, Host: string(raw[len(metaAccessPrefix):])}, nil
	case bytes.HasPrefix(raw, metaPrefix):
		return Key{Kind: KeyMeta, Raw: raw, Host: string(raw[len(metaPrefix):])}, nil
	case bytes.HasPrefix(raw, recordPrefix):
		host, nameBytes, ok := splitRecordKey(raw[len(recordPrefix):])
		if !ok {
			return Key{Kind: KeyUnknown, Raw: raw}, nil
		}
		name, err := DecodeValue(nameBytes)
		if err != nil {
			return Key{}, errors.Wrap(err, "LocalStorage record key: name")
		}
		return Key{Kind: KeyRecord, Raw: raw, Host: host, Name: name}, nil
	default:
		return Key{Kind: KeyUnknown, Raw: raw}, nil
	}
}

// splitRecordKey splits a record key's body into {host}\x00{tag+name}, per
// spec §4.4. The returned name bytes still carry their leading encoding tag
// byte; decoding them is DecodeValue's job, since the format is identical to
// a record value's.
func splitRecordKey(body []byte) (host string, nameBytes []byte, ok bool) {
	idx := bytes.IndexByte(body, 0)
	if idx < 0 {
		return "", nil, false
	}
	return string(body[:idx]), body[idx+1:], true
}

// DecodeValue decodes a LocalStorage record value (or a record key's name,
// which uses the same tag+body convention): a leading encoding tag byte
// followed by the string body in that encoding. Any tag outside
// {EncodingUTF16LE, EncodingLatin1} is an error (spec §9 Open Question
// (b)) rather than a silently garbled decode.
func DecodeValue(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", errors.Wrap(ErrTruncation, "LocalStorage value: empty")
	}
	tag, body := Encoding(raw[0]), raw[1:]
	switch tag {
	case EncodingUTF16LE:
		if len(body)%2 != 0 {
			return "", errors.Wrap(ErrTruncation, "LocalStorage value: odd UTF-16LE byte length")
		}
		units := make([]uint16, len(body)/2)
		for i := range units {
			units[i] = uint16(body[2*i]) | uint16(body[2*i+1])<<8
		}
		return string(utf16.Decode(units)), nil
	case EncodingLatin1:
		runes := make([]rune, len(body))
		for i, b := range body {
			runes[i] = rune(b)
		}
		return string(runes), nil
	default:
		return "", errors.Wrapf(ErrUnknownEncoding, "tag 0x%x", errors.Safe(byte(tag)))
	}
}

// WriteMetadata is the decoded value of a META:<host> key: the store's
// last-modified time and total size. Chromium serializes each field as a
// protobuf field-tag byte followed by a protobuf varint (spec §3; see
// original_source's LocalStorageAreaWriteMetaData).
type WriteMetadata struct {
	LastModified uint64
	SizeBytes    uint64
}

// AccessMetadata is the decoded value of a METAACCESS:<host> key: the
// store's last-accessed time, tag-byte-then-varint encoded like
// WriteMetadata (original_source's LocalStorageAreaAccessMetaData).
type AccessMetadata struct {
	LastAccessed uint64
}

// decodeWriteMetadata decodes a META: value: {lm_type tag, last_modified
// varint, sb_type tag, size_bytes varint}.
func decodeWriteMetadata(raw []byte) (WriteMetadata, error) {
	if len(raw) == 0 {
		return WriteMetadata{}, errors.Wrap(ErrTruncation, "LocalStorage write metadata: empty")
	}
	lastModified, n, err := varint.Protobuf(raw, 1) // skip lm_type tag byte
	if err != nil {
		return WriteMetadata{}, errors.Wrap(err, "LocalStorage write metadata: last_modified")
	}
	sizeBytes, _, err := varint.Protobuf(raw, 1+n+1) // skip sb_type tag byte
	if err != nil {
		return WriteMetadata{}, errors.Wrap(err, "LocalStorage write metadata: size_bytes")
	}
	return WriteMetadata{LastModified: lastModified, SizeBytes: sizeBytes}, nil
}

// decodeAccessMetadata decodes a METAACCESS: value: {la_type tag,
// last_accessed varint}.
func decodeAccessMetadata(raw []byte) (AccessMetadata, error) {
	if len(raw) == 0 {
		return AccessMetadata{}, errors.Wrap(ErrTruncation, "LocalStorage access metadata: empty")
	}
	lastAccessed, _, err := varint.Protobuf(raw, 1) // skip la_type tag byte
	if err != nil {
		return AccessMetadata{}, errors.Wrap(err, "LocalStorage access metadata: last_accessed")
	}
	return AccessMetadata{LastAccessed: lastAccessed}, nil
}

// Store groups decoded LocalStorage records and metadata by host, built by
// replaying a log or SST's Records through ParseKey (spec §4.4).
type Store struct {
	Hosts      map[string]map[string]string // host -> item name -> decoded value
	WriteMeta  map[string]WriteMetadata     // host -> META: metadata
	AccessMeta map[string]AccessMetadata    // host -> METAACCESS: metadata
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{
		Hosts:      make(map[string]map[string]string),
		WriteMeta:  make(map[string]WriteMetadata),
		AccessMeta: make(map[string]AccessMetadata),
	}
}

// Apply folds one Record into the store if it decodes successfully: a
// KeyRecord updates Hosts, a KeyMeta updates WriteMeta, a KeyMetaAccess
// updates AccessMeta. Anything else, or a decode failure, is ignored
// (callers wanting strict behavior should call ParseKey/DecodeValue
// directly instead).
func (s *Store) Apply(rec Record) {
	if rec.State != StateLive {
		return
	}
	k, err := ParseKey(rec.Key)
	if err != nil {
		return
	}
	switch k.Kind {
	case KeyMeta:
		meta, err := decodeWriteMetadata(rec.Value)
		if err != nil {
			return
		}
		s.WriteMeta[k.Host] = meta
	case KeyMetaAccess:
		meta, err := decodeAccessMetadata(rec.Value)
		if err != nil {
			return
		}
		s.AccessMeta[k.Host] = meta
	case KeyRecord:
		v, err := DecodeValue(rec.Value)
		if err != nil {
			return
		}
		items, ok := s.Hosts[k.Host]
		if !ok {
			items = make(map[string]string)
			s.Hosts[k.Host] = items
		}
		items[k.Name] = v
	}
}
