package sqlite3

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/varint"
)

// Cell is one decoded B-tree cell. Which fields are populated depends on
// the owning page's type, per spec §4.3.
type Cell struct {
	PageType  PageType
	LeftChild uint32 // interior cells only
	RowID     int64  // table cells only (the integer key)
	Payload   []byte // leaf cells (and interior-index cells) only
}

// HasPayload reports whether this cell type carries a Record payload.
func (c Cell) HasPayload() bool {
	return c.PageType == PageLeafTable || c.PageType == PageLeafIndex || c.PageType == PageInteriorIndex
}

// overflowThresholds computes M and m from the usable page size, per spec
// §4.3's overflow-reassembly formulas.
func overflowThresholds(usable uint32) (maxLocal, minLocal int64) {
	u := int64(usable)
	maxLocal = ((u-12)*64)/255 - 23
	minLocal = ((u-12)*32)/255 - 23
	return maxLocal, minLocal
}

// localPayloadCap returns the number of payload bytes stored in the cell
// itself (the rest lives in the overflow chain), given the cell's declared
// total payload size.
func localPayloadCap(usable uint32, payloadSize int64, leafTable bool) int64 {
	u := int64(usable)
	maxLocal, minLocal := overflowThresholds(usable)
	cap := maxLocal
	if leafTable {
		cap = u - 35
	}
	if payloadSize <= cap {
		return payloadSize
	}
	surplus := minLocal + (payloadSize-minLocal)%(u-4)
	if surplus <= cap {
		return surplus
	}
	return minLocal
}

// decodeCell parses the cell located at byte offset off within page p.
func (d *Database) decodeCell(p *Page, off int) (Cell, error) {
	raw := p.raw
	if off < 0 || off >= len(raw) {
		return Cell{}, errors.Wrapf(ErrTruncation, "cell offset %d out of page bounds", errors.Safe(off))
	}
	c := Cell{PageType: p.Type}
	pos := off

	readVarint := func() (uint64, error) {
		v, n, err := varint.SQLite(raw, pos)
		if err != nil {
			return 0, err
		}
		pos += n
		return v, nil
	}
	readU32 := func() (uint32, error) {
		if pos+4 > len(raw) {
			return 0, errors.Wrap(ErrTruncation, "reading u32 cell field")
		}
		v := binary.BigEndian.Uint32(raw[pos : pos+4])
		pos += 4
		return v, nil
	}

	var payloadSize int64
	var hasPayload bool

	switch p.Type {
	case PageInteriorTable:
		lc, err := readU32()
		if err != nil {
			return Cell{}, err
		}
		c.LeftChild = lc
		rowid, err := readVarint()
		if err != nil {
			return Cell{}, err
		}
		c.RowID = int64(rowid)

	case PageLeafTable:
		ps, err := readVarint()
		if err != nil {
			return Cell{}, err
		}
		payloadSize = int64(ps)
		rowid, err := readVarint()
		if err != nil {
			return Cell{}, err
		}
		c.RowID = int64(rowid)
		hasPayload = true

	case PageLeafIndex:
		ps, err := readVarint()
		if err != nil {
			return Cell{}, err
		}
		payloadSize = int64(ps)
		hasPayload = true

	case PageInteriorIndex:
		lc, err := readU32()
		if err != nil {
			return Cell{}, err
		}
		c.LeftChild = lc
		ps, err := readVarint()
		if err != nil {
			return Cell{}, err
		}
		payloadSize = int64(ps)
		hasPayload = true
	}

	if !hasPayload {
		return c, nil
	}

	localCap := localPayloadCap(d.Header.UsablePageSize(), payloadSize, p.Type == PageLeafTable)
	if localCap < 0 {
		localCap = 0
	}
	if localCap > payloadSize {
		localCap = payloadSize
	}
	if pos+int(localCap) > len(raw) {
		return Cell{}, errors.Wrapf(ErrTruncation, "cell local payload (%d bytes) overruns page", errors.Safe(localCap))
	}
	local := raw[pos : pos+int(localCap)]
	pos += int(localCap)

	if localCap == payloadSize {
		c.Payload = append([]byte(nil), local...)
		return c, nil
	}

	overflowPage, err := readU32()
	if err != nil {
		return Cell{}, errors.Wrap(err, "reading overflow page pointer")
	}
	payload := make([]byte, 0, payloadSize)
	payload = append(payload, local...)
	remaining := payloadSize - localCap
	for overflowPage != 0 && remaining > 0 {
		raw, err := d.rawPage(overflowPage)
		if err != nil {
			return Cell{}, errors.Wrap(err, "reading overflow page")
		}
		if len(raw) < 4 {
			return Cell{}, errors.Wrap(ErrTruncation, "overflow page too short for next-page pointer")
		}
		next := binary.BigEndian.Uint32(raw[0:4])
		avail := int64(len(raw) - 4)
		take := remaining
		if take > avail {
			take = avail
		}
		payload = append(payload, raw[4:4+take]...)
		remaining -= take
		overflowPage = next
	}
	if remaining != 0 {
		return Cell{}, errors.Wrapf(ErrTruncation, "overflow chain produced %d bytes, wanted %d", errors.Safe(len(payload)), errors.Safe(payloadSize))
	}
	c.Payload = payload
	return c, nil
}
