package leveldb

import (
	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/varint"
)

// RecordState is the liveness tag carried by a LevelDB record, whether it
// originated from a log file's LogRecord.state byte or an SST's internal
// key trailer.
type RecordState uint8

const (
	// StateUnknown is used for SST-derived records whose internal key is
	// shorter than the 8-byte trailer, per spec §3.
	StateUnknown RecordState = iota
	StateDeleted
	StateLive
)

func (s RecordState) String() string {
	switch s {
	case StateDeleted:
		return "deleted"
	case StateLive:
		return "live"
	default:
		return "unknown"
	}
}

// Record is the flat, format-agnostic record this engine surfaces,
// regardless of whether it was read from a log file or an SST data block
// (spec §3's "LevelDB store ... exposes a flat stream of Records").
type Record struct {
	State RecordState
	Key   []byte
	Value []byte // nil when State == StateDeleted

	// BatchSeq and IndexInBatch are populated for log-derived records: per
	// spec §9 Open Question (a), the source assigns the whole batch's
	// seq_num to every record it contains; Seq() additionally offers the
	// strict per-record LevelDB convention (seq_num + index) for callers
	// that need it.
	BatchSeq     uint64
	IndexInBatch uint32
	fromLog      bool

	// Sequence is populated for SST-derived records from the internal-key
	// trailer's top 56 bits.
	Sequence    uint64
	HasSequence bool
}

// Seq returns this record's sequence number. For a log-derived record this
// is BatchSeq + IndexInBatch (the strict LevelDB convention); for an
// SST-derived record it is Sequence.
func (r Record) Seq() uint64 {
	if r.fromLog {
		return r.BatchSeq + uint64(r.IndexInBatch)
	}
	return r.Sequence
}

// logRecordState mirrors upstream LevelDB's WriteBatch tags: kTypeDeletion
// (0) and kTypeValue (1).
const (
	logStateDeleted = 0
	logStateLive    = 1
)

// decodeLogRecord decodes one LogRecord from buf at off: a one-byte state
// tag, a varint key length, the key, and — for a live record — a varint
// value length and the value (spec §3). n is the number of bytes consumed.
func decodeLogRecord(buf []byte, off int) (rec Record, n int, err error) {
	start := off
	if off >= len(buf) {
		return Record{}, 0, errors.Wrapf(ErrTruncation, "log record: no state byte at offset %d", errors.Safe(off))
	}
	state := buf[off]
	off++

	keyLen, m, err := varint.Protobuf(buf, off)
	if err != nil {
		return Record{}, 0, errors.Wrap(err, "log record: key length")
	}
	off += m
	if off+int(keyLen) > len(buf) {
		return Record{}, 0, errors.Wrapf(ErrTruncation, "log record: key needs %d bytes, %d available", errors.Safe(keyLen), errors.Safe(len(buf)-off))
	}
	key := buf[off : off+int(keyLen)]
	off += int(keyLen)

	rec.Key = key
	switch state {
	case logStateDeleted:
		rec.State = StateDeleted
	case logStateLive:
		rec.State = StateLive
		valLen, m2, err := varint.Protobuf(buf, off)
		if err != nil {
			return Record{}, 0, errors.Wrap(err, "log record: value length")
		}
		off += m2
		if off+int(valLen) > len(buf) {
			return Record{}, 0, errors.Wrapf(ErrTruncation, "log record: value needs %d bytes, %d available", errors.Safe(valLen), errors.Safe(len(buf)-off))
		}
		rec.Value = buf[off : off+int(valLen)]
		off += int(valLen)
	default:
		return Record{}, 0, errors.Wrapf(ErrInvalidBlock, "log record: unknown state tag %d", errors.Safe(state))
	}
	return rec, off - start, nil
}
