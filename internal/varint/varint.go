// Package varint decodes the two incompatible variable-length integer
// encodings used by the formats this module parses: SQLite's big-endian,
// 9-byte-capped varint, and the little-endian, 10-byte-capped protobuf
// varint used by LevelDB's LocalStorage metadata records.
package varint

import "github.com/cockroachdb/errors"

// ErrUnterminated is returned when the byte stream ends before a varint
// completes.
var ErrUnterminated = errors.New("varint: unterminated (short read)")

// ErrOverflow is returned when a protobuf varint runs past 10 bytes. SQLite
// never returns it: a SQLite varint always ends by its 9th byte.
var ErrOverflow = errors.New("varint: too many continuation bytes")

// SQLiteMaxLen is the maximum number of bytes a SQLite varint can occupy.
const SQLiteMaxLen = 9

// ProtobufMaxLen is the maximum number of bytes a protobuf varint can occupy
// for a 64-bit value.
const ProtobufMaxLen = 10

// SQLite decodes one SQLite-style varint from buf, starting at offset off.
// It returns the decoded unsigned value, the number of bytes consumed, and
// an error. SQLite varints are 1-9 bytes: the first 8 bytes each contribute
// 7 bits (continuation bit in the MSB), and if all 8 have their high bit
// set, a 9th byte contributes all 8 of its bits.
func SQLite(buf []byte, off int) (value uint64, n int, err error) {
	var result uint64
	for i := 0; i < SQLiteMaxLen-1; i++ {
		if off+i >= len(buf) {
			return 0, 0, errors.Wrapf(ErrUnterminated, "sqlite varint at offset %d", errors.Safe(off))
		}
		b := buf[off+i]
		if i == SQLiteMaxLen-2 && b&0x80 != 0 {
			// The 8th byte (index 7) still has its continuation bit set;
			// the 9th byte is read in full below.
			result = (result << 7) | uint64(b&0x7f)
			continue
		}
		result = (result << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
	}
	// Made it through 8 bytes, all with continuation bits set: the 9th byte
	// supplies its full 8 bits verbatim.
	if off+SQLiteMaxLen-1 >= len(buf) {
		return 0, 0, errors.Wrapf(ErrUnterminated, "sqlite varint at offset %d", errors.Safe(off))
	}
	result = (result << 8) | uint64(buf[off+SQLiteMaxLen-1])
	return result, SQLiteMaxLen, nil
}

// SQLiteSigned re-interprets the result of SQLite as a two's-complement
// signed 64-bit integer, as used for record serial types 1-6 and rowid cell
// keys.
func SQLiteSigned(buf []byte, off int) (value int64, n int, err error) {
	u, n, err := SQLite(buf, off)
	if err != nil {
		return 0, 0, err
	}
	return int64(u), n, nil
}

// Protobuf decodes one protobuf-style varint from buf, starting at offset
// off: little-endian, 7 data bits per byte with the continuation bit in the
// MSB, capped at 10 bytes for a 64-bit value.
func Protobuf(buf []byte, off int) (value uint64, n int, err error) {
	var result uint64
	for i := 0; i < ProtobufMaxLen; i++ {
		if off+i >= len(buf) {
			return 0, 0, errors.Wrapf(ErrUnterminated, "protobuf varint at offset %d", errors.Safe(off))
		}
		b := buf[off+i]
		result |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
	}
	return 0, 0, errors.Wrapf(ErrOverflow, "protobuf varint at offset %d", errors.Safe(off))
}

// AppendSQLite encodes v as a SQLite varint and appends it to buf, returning
// the extended slice. It is primarily used by tests to build fixtures and to
// round-trip-check the decoder.
func AppendSQLite(buf []byte, v uint64) []byte {
	if v>>56 != 0 {
		// Needs the full 9-byte form: 8 groups of 7 bits (continuation bit
		// set on all 8), then a trailing byte with all 8 remaining bits.
		var tmp [9]byte
		tmp[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			tmp[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return append(buf, tmp[:]...)
	}
	var tmp [SQLiteMaxLen - 1]byte
	n := 0
	for {
		tmp[n] = byte(v&0x7f) | 0x80
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	tmp[0] &^= 0x80
	out := make([]byte, n)
	for i, j := 0, n-1; j >= 0; j, i = j-1, i+1 {
		out[i] = tmp[j]
	}
	return append(buf, out...)
}

// AppendProtobuf encodes v as a protobuf varint and appends it to buf.
func AppendProtobuf(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}
