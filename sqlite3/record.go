package sqlite3

import (
	"encoding/binary"
	"math"
	"unicode/utf16"

	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/varint"
)

// ErrUnknownSerialType is wrapped into errors returned when a record's
// serial-type stream contains one of the reserved values (10, 11) or a
// negative value after casting.
var ErrUnknownSerialType = errors.New("sqlite3: unknown record serial type")

// Record is a decoded SQLite record: the payload of a table or index leaf
// cell, per spec §3/§4.3.
type Record struct {
	SerialTypes []int64
	Values      []any // nil, int64, float64, bool-as-int64(0/1), []byte, or string
}

// decodeRecord parses payload (a cell's full, overflow-reassembled payload)
// into a Record, using enc to decode TEXT values.
func decodeRecord(payload []byte, enc TextEncoding) (Record, error) {
	headerSize, n, err := varint.SQLite(payload, 0)
	if err != nil {
		return Record{}, errors.Wrap(err, "record header length")
	}
	pos := n
	var serialTypes []int64
	for pos < int(headerSize) {
		st, m, err := varint.SQLiteSigned(payload, pos)
		if err != nil {
			return Record{}, errors.Wrap(err, "record serial type")
		}
		serialTypes = append(serialTypes, st)
		pos += m
	}
	if pos != int(headerSize) {
		return Record{}, errors.Newf("sqlite3: record header length mismatch: consumed %d, declared %d", pos, headerSize)
	}

	values := make([]any, len(serialTypes))
	for i, st := range serialTypes {
		size, err := serialTypeSize(st)
		if err != nil {
			return Record{}, err
		}
		if pos+int(size) > len(payload) {
			return Record{}, errors.Wrapf(ErrTruncation, "record value %d needs %d bytes, only %d remain", i, errors.Safe(size), errors.Safe(len(payload)-pos))
		}
		v, err := decodeSerialValue(st, payload[pos:pos+int(size)], enc)
		if err != nil {
			return Record{}, err
		}
		values[i] = v
		pos += int(size)
	}
	if pos != len(payload) {
		return Record{}, errors.Newf("sqlite3: record has %d leftover payload bytes after decoding", len(payload)-pos)
	}
	return Record{SerialTypes: serialTypes, Values: values}, nil
}

// serialTypeSize returns the on-disk byte width of a value with the given
// serial type.
func serialTypeSize(st int64) (int64, error) {
	switch {
	case st >= 0 && st <= 4:
		return [5]int64{0, 1, 2, 3, 4}[st], nil
	case st == 5:
		return 6, nil
	case st == 6, st == 7:
		return 8, nil
	case st == 8, st == 9:
		return 0, nil
	case st == 10 || st == 11:
		return 0, errors.Wrapf(ErrUnknownSerialType, "reserved serial type %d", errors.Safe(st))
	case st < 0:
		return 0, errors.Wrapf(ErrUnknownSerialType, "negative serial type %d", errors.Safe(st))
	case st%2 == 0:
		return (st - 12) / 2, nil
	default:
		return (st - 13) / 2, nil
	}
}

func decodeSerialValue(st int64, buf []byte, enc TextEncoding) (any, error) {
	switch {
	case st == 0:
		return nil, nil
	case st >= 1 && st <= 5:
		return signedBigEndian(buf), nil
	case st == 6:
		return int64(binary.BigEndian.Uint64(buf)), nil
	case st == 7:
		return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
	case st == 8:
		return int64(0), nil
	case st == 9:
		return int64(1), nil
	case st%2 == 0:
		return append([]byte(nil), buf...), nil
	default:
		return decodeText(buf, enc), nil
	}
}

// signedBigEndian sign-extends a big-endian two's-complement integer of
// width 1,2,3,4 or 6 bytes (serial types 1-5).
func signedBigEndian(buf []byte) int64 {
	var v int64
	if len(buf) > 0 && buf[0]&0x80 != 0 {
		v = -1 // sign-extend with all-ones
	}
	for _, b := range buf {
		v = (v << 8) | int64(b)
	}
	return v
}

func decodeText(buf []byte, enc TextEncoding) string {
	switch enc {
	case EncodingUTF16LE, EncodingUTF16BE:
		if len(buf)%2 != 0 {
			buf = buf[:len(buf)-len(buf)%2]
		}
		u16 := make([]uint16, len(buf)/2)
		for i := range u16 {
			if enc == EncodingUTF16LE {
				u16[i] = binary.LittleEndian.Uint16(buf[i*2 : i*2+2])
			} else {
				u16[i] = binary.BigEndian.Uint16(buf[i*2 : i*2+2])
			}
		}
		return string(utf16.Decode(u16))
	default:
		return string(buf)
	}
}
