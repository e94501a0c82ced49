package sqlite3

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeHeader(pageSize uint16, pageCount uint32) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:16], HeaderMagic)
	buf[16] = byte(pageSize >> 8)
	buf[17] = byte(pageSize)
	buf[18] = 1 // file format write version
	buf[21] = 64
	buf[22] = 32
	buf[23] = 32
	buf[28] = byte(pageCount >> 24)
	buf[29] = byte(pageCount >> 16)
	buf[30] = byte(pageCount >> 8)
	buf[31] = byte(pageCount)
	buf[56] = 0
	buf[57] = 0
	buf[58] = 0
	buf[59] = 1 // text encoding = UTF-8
	return buf
}

func TestParseHeaderPageSize65536(t *testing.T) {
	buf := fakeHeader(1, 10) // the "1 means 65536" special case
	h, err := parseHeader(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(65536), h.PageSize)
	require.Equal(t, uint32(10), h.PageCount)
	require.Equal(t, EncodingUTF8, h.TextEncoding)
}

func TestParseHeaderBadMagic(t *testing.T) {
	buf := fakeHeader(4096, 1)
	buf[0] = 'X'
	_, err := parseHeader(buf)
	require.ErrorIs(t, err, ErrInvalidDatabase)
}

func TestParseHeaderUsablePageSize(t *testing.T) {
	buf := fakeHeader(4096, 1)
	buf[20] = 8 // 8 bytes reserved per page
	h, err := parseHeader(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(4096-8), h.UsablePageSize())
}
