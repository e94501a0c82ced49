package sqlite3

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// PageType identifies the four page flag-byte values defined by the format.
type PageType uint8

const (
	PageInteriorIndex PageType = 0x02
	PageInteriorTable PageType = 0x05
	PageLeafIndex     PageType = 0x0a
	PageLeafTable     PageType = 0x0d
)

func (t PageType) IsLeaf() bool {
	return t == PageLeafIndex || t == PageLeafTable
}

func (t PageType) IsTable() bool {
	return t == PageInteriorTable || t == PageLeafTable
}

func (t PageType) String() string {
	switch t {
	case PageInteriorIndex:
		return "interior-index"
	case PageInteriorTable:
		return "interior-table"
	case PageLeafIndex:
		return "leaf-index"
	case PageLeafTable:
		return "leaf-table"
	default:
		return "unknown"
	}
}

// pageHeaderSize returns the page header size: 8 bytes for leaf pages, 12
// for interior pages (the extra 4 bytes are the right-most child pointer).
func pageHeaderSize(t PageType) int {
	if t.IsLeaf() {
		return 8
	}
	return 12
}

// Page is a decoded database page: its header, and the offsets (from the
// cell-pointer array) of every cell it owns, in array order.
type Page struct {
	Number           uint32
	Type             PageType
	FirstFreeblock   uint16
	CellCount        uint16
	CellContentStart uint16
	FragmentedBytes  uint8
	RightChild       uint32 // only meaningful for interior pages
	CellPointers     []uint16
	raw              []byte // the full page_size bytes backing this page
	headerOffset     int    // 0, except page 1 where the header starts at byte 100
}

// decodePage parses raw (exactly page_size bytes) into a Page. headerOffset
// is 100 for page 1 (whose first 100 bytes are the database header) and 0
// otherwise.
func decodePage(number uint32, raw []byte, headerOffset int) (*Page, error) {
	if headerOffset+8 > len(raw) {
		return nil, errors.Wrapf(ErrTruncation, "page %d too short for header", errors.Safe(number))
	}
	flag := PageType(raw[headerOffset])
	switch flag {
	case PageInteriorIndex, PageInteriorTable, PageLeafIndex, PageLeafTable:
	default:
		return nil, errors.Wrapf(ErrInvalidPageType, "page %d has flag byte 0x%02x", errors.Safe(number), flag)
	}
	p := &Page{
		Number:       number,
		Type:         flag,
		raw:          raw,
		headerOffset: headerOffset,
	}
	p.FirstFreeblock = binary.BigEndian.Uint16(raw[headerOffset+1 : headerOffset+3])
	p.CellCount = binary.BigEndian.Uint16(raw[headerOffset+3 : headerOffset+5])
	p.CellContentStart = binary.BigEndian.Uint16(raw[headerOffset+5 : headerOffset+7])
	p.FragmentedBytes = raw[headerOffset+7]

	ptrStart := headerOffset + 8
	if !flag.IsLeaf() {
		if headerOffset+12 > len(raw) {
			return nil, errors.Wrapf(ErrTruncation, "page %d too short for interior header", errors.Safe(number))
		}
		p.RightChild = binary.BigEndian.Uint32(raw[headerOffset+8 : headerOffset+12])
		ptrStart = headerOffset + 12
	}

	ptrEnd := ptrStart + int(p.CellCount)*2
	if ptrEnd > len(raw) {
		return nil, errors.Wrapf(ErrTruncation, "page %d cell pointer array overruns page", errors.Safe(number))
	}
	p.CellPointers = make([]uint16, p.CellCount)
	for i := range p.CellPointers {
		off := ptrStart + i*2
		p.CellPointers[i] = binary.BigEndian.Uint16(raw[off : off+2])
	}
	return p, nil
}
