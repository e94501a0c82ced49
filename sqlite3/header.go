package sqlite3

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// HeaderMagic is the 16-byte string every valid SQLite3 file begins with.
const HeaderMagic = "SQLite format 3\x00"

// HeaderSize is the fixed size, in bytes, of the database header that
// occupies the first 100 bytes of page 1.
const HeaderSize = 100

// TextEncoding identifies how TEXT serial-type values are decoded.
type TextEncoding uint32

const (
	EncodingUTF8    TextEncoding = 1
	EncodingUTF16LE TextEncoding = 2
	EncodingUTF16BE TextEncoding = 3
)

// Header is the decoded 100-byte SQLite3 database header.
type Header struct {
	PageSize          uint32 // normalized: the on-disk value 1 means 65536
	WriteVersion      uint8
	ReadVersion       uint8
	ReservedSpace     uint8
	FileChangeCounter uint32
	PageCount         uint32
	FreelistTrunkPage uint32
	FreelistPages     uint32
	SchemaCookie      uint32
	SchemaFormat      uint32
	TextEncoding      TextEncoding
	UserVersion       uint32
	ApplicationID     uint32
	VersionValidFor   uint32
	SQLiteVersion     uint32
}

// UsablePageSize is PageSize minus the reserved per-page trailer.
func (h Header) UsablePageSize() uint32 {
	return h.PageSize - uint32(h.ReservedSpace)
}

// parseHeader decodes the first 100 bytes of the database file. Per spec
// invariant 1, magic must match exactly and the usable page size must be at
// least 480.
func parseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errors.Wrapf(ErrTruncation, "header needs %d bytes, got %d", HeaderSize, errors.Safe(len(buf)))
	}
	if string(buf[:16]) != HeaderMagic {
		return Header{}, errors.Wrapf(ErrInvalidDatabase, "bad magic %q", buf[:16])
	}
	var h Header
	rawPageSize := binary.BigEndian.Uint16(buf[16:18])
	switch rawPageSize {
	case 1:
		h.PageSize = 65536
	default:
		h.PageSize = uint32(rawPageSize)
	}
	if h.PageSize < 512 || (h.PageSize&(h.PageSize-1)) != 0 {
		return Header{}, errors.Wrapf(ErrInvalidDatabase, "invalid page size %d", errors.Safe(h.PageSize))
	}
	h.WriteVersion = buf[18]
	h.ReadVersion = buf[19]
	h.ReservedSpace = buf[20]
	h.FileChangeCounter = binary.BigEndian.Uint32(buf[24:28])
	h.PageCount = binary.BigEndian.Uint32(buf[28:32])
	h.FreelistTrunkPage = binary.BigEndian.Uint32(buf[32:36])
	h.FreelistPages = binary.BigEndian.Uint32(buf[36:40])
	h.SchemaCookie = binary.BigEndian.Uint32(buf[40:44])
	h.SchemaFormat = binary.BigEndian.Uint32(buf[44:48])
	enc := binary.BigEndian.Uint32(buf[56:60])
	switch TextEncoding(enc) {
	case EncodingUTF8, EncodingUTF16LE, EncodingUTF16BE:
		h.TextEncoding = TextEncoding(enc)
	default:
		h.TextEncoding = EncodingUTF8
	}
	h.UserVersion = binary.BigEndian.Uint32(buf[60:64])
	h.ApplicationID = binary.BigEndian.Uint32(buf[68:72])
	h.VersionValidFor = binary.BigEndian.Uint32(buf[92:96])
	h.SQLiteVersion = binary.BigEndian.Uint32(buf[96:100])

	if h.UsablePageSize() < 480 {
		return Header{}, errors.Wrapf(ErrInvalidDatabase, "usable page size %d below minimum 480", errors.Safe(h.UsablePageSize()))
	}
	return h, nil
}
