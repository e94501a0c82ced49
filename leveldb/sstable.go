package leveldb

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/varint"
)

// Sorted-table footer layout, grounded on the teacher's sstable/table.go
// (parseFooter's "legacy (LevelDB) footer format") and other_examples'
// rockyardkv footer.go magic constant.
const (
	sstFooterSize = 48
	sstMagicLE    = 0xdb4775248b80fb57
)

// BlockHandle is an {offset, length} pair pointing at a block within an SST
// file, varint64-encoded with no padding between the two fields.
type BlockHandle struct {
	Offset uint64
	Length uint64
}

// DecodeBlockHandle reads a BlockHandle from buf at offset 0, as found in
// an index or metaindex block entry's value. It returns the number of
// bytes consumed.
func DecodeBlockHandle(buf []byte) (BlockHandle, int, error) {
	return decodeBlockHandle(buf, 0)
}

// decodeBlockHandle reads a BlockHandle from buf at off, returning the
// number of bytes consumed.
func decodeBlockHandle(buf []byte, off int) (BlockHandle, int, error) {
	offset, n1, err := varint.Protobuf(buf, off)
	if err != nil {
		return BlockHandle{}, 0, errors.Wrap(err, "block handle: offset")
	}
	length, n2, err := varint.Protobuf(buf, off+n1)
	if err != nil {
		return BlockHandle{}, 0, errors.Wrap(err, "block handle: length")
	}
	return BlockHandle{Offset: offset, Length: length}, n1 + n2, nil
}

// Footer is the 48-byte trailer of an SST/.ldb file.
type Footer struct {
	MetaIndex BlockHandle
	Index     BlockHandle
}

// parseFooter decodes the final 48 bytes of an SST file.
func parseFooter(buf []byte) (Footer, error) {
	if len(buf) != sstFooterSize {
		return Footer{}, errors.Wrapf(ErrTruncation, "footer needs %d bytes, got %d", sstFooterSize, errors.Safe(len(buf)))
	}
	magic := binary.LittleEndian.Uint64(buf[sstFooterSize-8:])
	if magic != sstMagicLE {
		return Footer{}, errors.Wrapf(ErrInvalidDatabase, "bad SST magic 0x%x", magic)
	}
	metaHandle, n, err := decodeBlockHandle(buf, 0)
	if err != nil {
		return Footer{}, errors.Wrap(err, "footer: metaindex handle")
	}
	indexHandle, _, err := decodeBlockHandle(buf, n)
	if err != nil {
		return Footer{}, errors.Wrap(err, "footer: index handle")
	}
	return Footer{MetaIndex: metaHandle, Index: indexHandle}, nil
}

// Table is a read-only handle onto a LevelDB sorted table (.ldb/.sst) file.
type Table struct {
	r      io.ReaderAt
	size   int64
	Footer Footer
	opts   DecodeBlockOptions
}

// TableOption configures OpenTable.
type TableOption func(*Table)

// WithTableChecksumVerification enables crc32c verification of every block
// this Table reads.
func WithTableChecksumVerification() TableOption {
	return func(t *Table) { t.opts.VerifyChecksum = true }
}

// WithTableDecompressor installs the Decompressor used for Snappy-compressed
// blocks.
func WithTableDecompressor(d Decompressor) TableOption {
	return func(t *Table) { t.opts.Decompress = d }
}

// OpenTable reads and validates the footer of an SST file of known size.
func OpenTable(r io.ReaderAt, size int64, opts ...TableOption) (*Table, error) {
	if size < sstFooterSize {
		return nil, errors.Wrapf(ErrInvalidDatabase, "file of %d bytes too small for an SST footer", errors.Safe(size))
	}
	buf := make([]byte, sstFooterSize)
	n, err := r.ReadAt(buf, size-sstFooterSize)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "leveldb: reading SST footer")
	}
	if n < sstFooterSize {
		return nil, errors.Wrapf(ErrTruncation, "footer read got %d of %d bytes", errors.Safe(n), sstFooterSize)
	}
	foot, err := parseFooter(buf)
	if err != nil {
		return nil, err
	}
	t := &Table{r: r, size: size, Footer: foot}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// readBlock reads and decodes the block described by h.
func (t *Table) readBlock(h BlockHandle) ([]BlockEntry, error) {
	// +blockTrailerSize: the handle's Length excludes the trailer, per the
	// footer format comment in the teacher's sstable/table.go.
	buf := make([]byte, h.Length+blockTrailerSize)
	n, err := t.r.ReadAt(buf, int64(h.Offset))
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "leveldb: reading SST block")
	}
	if n < len(buf) {
		return nil, errors.Wrapf(ErrTruncation, "block at offset %d: read %d of %d bytes", errors.Safe(h.Offset), errors.Safe(n), errors.Safe(len(buf)))
	}
	return DecodeBlock(buf, t.opts)
}

// MetaIndex returns the metaindex block's entries: meta block name to
// BlockHandle.
func (t *Table) MetaIndex() ([]BlockEntry, error) {
	return t.readBlock(t.Footer.MetaIndex)
}

// Index returns the index block's entries: the i'th entry's value is the
// BlockHandle of the i'th data block.
func (t *Table) Index() ([]BlockEntry, error) {
	return t.readBlock(t.Footer.Index)
}

// DataBlock decodes the data block pointed at by h, typically obtained from
// an Index() entry's value.
func (t *Table) DataBlock(h BlockHandle) ([]BlockEntry, error) {
	return t.readBlock(h)
}

// internalKeyTrailerSize is the 8-byte {sequence:56, state:8} suffix LevelDB
// appends to every user key stored in an SST (spec §3).
const internalKeyTrailerSize = 8

// RecordFromEntry converts a data-block BlockEntry into a Record, splitting
// the internal-key trailer out of the stored key. Per spec §3, a key
// shorter than the trailer yields a Record with HasSequence=false and
// State=StateUnknown rather than an error.
func RecordFromEntry(e BlockEntry) Record {
	if len(e.Key) < internalKeyTrailerSize {
		return Record{Key: e.Key, Value: e.Value, State: StateUnknown}
	}
	userKey := e.Key[:len(e.Key)-internalKeyTrailerSize]
	trailer := binary.LittleEndian.Uint64(e.Key[len(e.Key)-internalKeyTrailerSize:])
	seq := trailer >> 8
	rec := Record{
		Key:         userKey,
		Sequence:    seq,
		HasSequence: true,
	}
	// Trailer's low byte: 0 = DELETED, anything else = LIVE (spec §3).
	if byte(trailer) == 0 {
		rec.State = StateDeleted
	} else {
		rec.State = StateLive
		rec.Value = e.Value
	}
	return rec
}
