package varint

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 0x3fff, 0x4000, math.MaxUint32, math.MaxUint64}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		values = append(values, r.Uint64())
	}
	for _, v := range values {
		buf := AppendSQLite(nil, v)
		require.LessOrEqual(t, len(buf), SQLiteMaxLen)
		got, n, err := SQLite(buf, 0)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestSQLiteNineByteForm(t *testing.T) {
	// A value needing the full 64 bits forces the 9-byte encoding, where
	// the final byte carries all 8 low bits verbatim.
	v := uint64(1) << 63
	buf := AppendSQLite(nil, v)
	require.Len(t, buf, SQLiteMaxLen)
	got, n, err := SQLite(buf, 0)
	require.NoError(t, err)
	require.Equal(t, SQLiteMaxLen, n)
	require.Equal(t, v, got)
}

func TestSQLiteUnterminated(t *testing.T) {
	buf := []byte{0x80, 0x80, 0x80}
	_, _, err := SQLite(buf, 0)
	require.ErrorIs(t, err, ErrUnterminated)
}

func TestProtobufRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, math.MaxUint32, math.MaxUint64}
	for _, v := range values {
		buf := AppendProtobuf(nil, v)
		got, n, err := Protobuf(buf, 0)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestProtobufOverflow(t *testing.T) {
	buf := make([]byte, ProtobufMaxLen+1)
	for i := range buf {
		buf[i] = 0x80
	}
	_, _, err := Protobuf(buf, 0)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestSQLiteSignedNegative(t *testing.T) {
	buf := AppendSQLite(nil, uint64(int64(-1)))
	got, n, err := SQLiteSigned(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, int64(-1), got)
}
