package sqlite3

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/forensiclog"
)

// WAL magic values. The low bit of the word distinguishes the checksum
// byte order used for frame checksums; we only need to recognise both.
const (
	WALMagicLE uint32 = 0x377F0682
	WALMagicBE uint32 = 0x377F0683
)

const (
	walHeaderSize      = 32
	walFrameHeaderSize = 24
)

// WALHeader is the 32-byte header at the start of a WAL file.
type WALHeader struct {
	Magic    uint32
	Version  uint32
	PageSize uint32
	Salt1    uint32
	Salt2    uint32
}

// Frame is one decoded WAL frame: its 24-byte header plus one page of data.
type Frame struct {
	Index             int // 0-based position within the WAL
	PageNumber        uint32
	PageCountOnCommit uint32 // non-zero iff this frame commits a checkpoint
	Salt1, Salt2      uint32
	Checksum1         uint32
	Checksum2         uint32
	Data              []byte
}

// Valid reports whether the frame's salts match the WAL header's salts, per
// spec §3.
func (f Frame) Valid(h WALHeader) bool {
	return f.Salt1 == h.Salt1 && f.Salt2 == h.Salt2
}

// IsCommit reports whether this frame closes a checkpoint.
func (f Frame) IsCommit() bool { return f.PageCountOnCommit != 0 }

// Checkpoint is a maximal contiguous run of frames ending in a commit
// frame, per spec §3/§4.3.
type Checkpoint struct {
	Frames []Frame
	// Pages maps page number to the last frame that wrote it within this
	// checkpoint (last write wins).
	Pages map[uint32]Frame
}

// WAL is a read-only handle onto a SQLite WAL companion file.
type WAL struct {
	r      io.ReaderAt
	Header WALHeader
	cache  *walFrameCache
	log    forensiclog.Logger
}

// WALOption configures OpenWAL.
type WALOption func(*WAL)

// WithWALFrameCacheCapacity overrides DefaultWALFrameCacheCapacity.
func WithWALFrameCacheCapacity(n int) WALOption {
	return func(w *WAL) { w.cache = newWALFrameCache(n) }
}

// DefaultWALFrameCacheCapacity is spec §5's "~1024 entries".
const DefaultWALFrameCacheCapacity = 1024

// OpenWAL parses a WAL file's 32-byte header. Per spec §7, a database
// opened without a WAL file cannot be asked for WAL-only operations; this
// constructor is how a caller supplies one.
func OpenWAL(r io.ReaderAt, opts ...WALOption) (*WAL, error) {
	buf := make([]byte, walHeaderSize)
	n, err := r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "sqlite3: reading WAL header")
	}
	if n < walHeaderSize {
		return nil, errors.Wrapf(ErrTruncation, "WAL header needs %d bytes, got %d", walHeaderSize, errors.Safe(n))
	}
	magic := binary.BigEndian.Uint32(buf[0:4])
	if magic != WALMagicLE && magic != WALMagicBE {
		return nil, errors.Wrapf(ErrInvalidDatabase, "bad WAL magic 0x%x", magic)
	}
	h := WALHeader{
		Magic:    magic,
		Version:  binary.BigEndian.Uint32(buf[4:8]),
		PageSize: binary.BigEndian.Uint32(buf[8:12]),
		Salt1:    binary.BigEndian.Uint32(buf[16:20]),
		Salt2:    binary.BigEndian.Uint32(buf[20:24]),
	}
	w := &WAL{
		r:      r,
		Header: h,
		cache:  newWALFrameCache(DefaultWALFrameCacheCapacity),
		log:    forensiclog.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// FrameReader iterates a WAL's frames sequentially. It is the explicit,
// non-exception-driven replacement for the source's EOFError-terminated
// loop (spec §9 DESIGN NOTES).
type FrameReader struct {
	w   *WAL
	idx int
}

// Frames returns a fresh FrameReader starting at frame 0.
func (w *WAL) Frames() *FrameReader {
	return &FrameReader{w: w}
}

// Next decodes and returns the next frame. ok is false (with a nil error)
// at end of stream, which includes a truncated trailing frame whose header
// or page data is short; a non-nil error is an I/O error from the reader.
func (fr *FrameReader) Next() (frame Frame, ok bool, err error) {
	if f, hit := fr.w.cache.get(fr.idx); hit {
		fr.idx++
		return f, true, nil
	}
	off := int64(walHeaderSize) + int64(fr.idx)*(int64(walFrameHeaderSize)+int64(fr.w.Header.PageSize))
	header := make([]byte, walFrameHeaderSize)
	n, err := fr.w.r.ReadAt(header, off)
	if err == io.EOF && n == 0 {
		return Frame{}, false, nil
	}
	if err != nil && err != io.EOF {
		return Frame{}, false, errors.Wrap(err, "sqlite3: reading WAL frame header")
	}
	if n < walFrameHeaderSize {
		return Frame{}, false, nil // truncated trailing frame: treat as end of stream
	}
	data := make([]byte, fr.w.Header.PageSize)
	dn, err := fr.w.r.ReadAt(data, off+walFrameHeaderSize)
	if err != nil && err != io.EOF {
		return Frame{}, false, errors.Wrap(err, "sqlite3: reading WAL frame data")
	}
	if dn < len(data) {
		return Frame{}, false, nil
	}
	f := Frame{
		Index:             fr.idx,
		PageNumber:        binary.BigEndian.Uint32(header[0:4]),
		PageCountOnCommit: binary.BigEndian.Uint32(header[4:8]),
		Salt1:             binary.BigEndian.Uint32(header[8:12]),
		Salt2:             binary.BigEndian.Uint32(header[12:16]),
		Checksum1:         binary.BigEndian.Uint32(header[16:20]),
		Checksum2:         binary.BigEndian.Uint32(header[20:24]),
		Data:              data,
	}
	fr.w.cache.put(fr.idx, f)
	fr.idx++
	return f, true, nil
}

// Checkpoints scans the whole WAL and groups frames into checkpoints per
// spec §3/§4.3: a maximal contiguous run of frames ending in one whose
// PageCountOnCommit is non-zero.
func (w *WAL) Checkpoints() ([]Checkpoint, error) {
	var checkpoints []Checkpoint
	cur := Checkpoint{Pages: make(map[uint32]Frame)}
	fr := w.Frames()
	for {
		f, ok, err := fr.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cur.Frames = append(cur.Frames, f)
		cur.Pages[f.PageNumber] = f
		if f.IsCommit() {
			checkpoints = append(checkpoints, cur)
			cur = Checkpoint{Pages: make(map[uint32]Frame)}
		}
	}
	if len(cur.Frames) > 0 {
		w.log.Warnf("sqlite3: WAL ends with %d frames not closed by a commit frame", len(cur.Frames))
	}
	return checkpoints, nil
}
