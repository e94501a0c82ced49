package sqlite3

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/forensicdb/forensicdb/internal/forensiclog"
)

// Database is a read-only handle onto a SQLite3 file. It owns the
// underlying file handle and a bounded page cache; per spec §5 callers must
// not interleave two concurrent iterations backed by the same Database
// without their own synchronization.
type Database struct {
	r      io.ReaderAt
	Header Header
	cache  *pageCache
	log    forensiclog.Logger
	wal    *WAL
}

// Option configures Open.
type Option func(*Database)

// WithPageCacheCapacity overrides DefaultPageCacheCapacity.
func WithPageCacheCapacity(n int) Option {
	return func(d *Database) { d.cache = newPageCache(n) }
}

// WithLogger installs a Logger used to report recoverable per-cell
// failures during a B-tree walk (spec §7's OPTIONAL behavior). The default
// is a no-op logger.
func WithLogger(l forensiclog.Logger) Option {
	return func(d *Database) { d.log = l }
}

// Open parses the 100-byte header from r and returns a Database ready for
// page access. It does not read the WAL; call OpenWAL separately.
func Open(r io.ReaderAt, opts ...Option) (*Database, error) {
	buf := make([]byte, HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "sqlite3: reading header")
	}
	h, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	d := &Database{
		r:      r,
		Header: h,
		cache:  newPageCache(DefaultPageCacheCapacity),
		log:    forensiclog.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// PageCount returns the header's declared page count.
func (d *Database) PageCount() uint32 { return d.Header.PageCount }

// rawPage returns exactly PageSize bytes for page n (1-indexed). Page 1
// begins at file offset 0; pages 2..N begin at (n-1)*page_size.
func (d *Database) rawPage(n uint32) ([]byte, error) {
	if n < 1 || (d.Header.PageCount != 0 && n > d.Header.PageCount) {
		return nil, errors.Wrapf(ErrInvalidPageNumber, "page %d out of range [1,%d]", errors.Safe(n), errors.Safe(d.Header.PageCount))
	}
	buf := make([]byte, d.Header.PageSize)
	off := int64(n-1) * int64(d.Header.PageSize)
	nRead, err := d.r.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "reading page %d", errors.Safe(n))
	}
	if nRead < len(buf) {
		return nil, errors.Wrapf(ErrTruncation, "page %d: read %d of %d bytes", errors.Safe(n), errors.Safe(nRead), errors.Safe(len(buf)))
	}
	return buf, nil
}

// Page decodes (or fetches from cache) page n.
func (d *Database) Page(n uint32) (*Page, error) {
	if p, ok := d.cache.get(n); ok {
		return p, nil
	}
	raw, err := d.rawPage(n)
	if err != nil {
		return nil, err
	}
	headerOffset := 0
	if n == 1 {
		headerOffset = HeaderSize
	}
	p, err := decodePage(n, raw, headerOffset)
	if err != nil {
		return nil, err
	}
	d.cache.put(n, p)
	return p, nil
}

// AttachWAL associates a WAL reader with this Database, making WAL() and
// Checkpoints() available.
func (d *Database) AttachWAL(w *WAL) { d.wal = w }

// WAL returns the attached WAL reader, or ErrNoWriteAheadLog if none has
// been attached via AttachWAL.
func (d *Database) WAL() (*WAL, error) {
	if d.wal == nil {
		return nil, errors.Wrap(ErrNoWriteAheadLog, "no WAL attached to this database")
	}
	return d.wal, nil
}

// Checkpoints is a convenience wrapper around WAL().Checkpoints().
func (d *Database) Checkpoints() ([]Checkpoint, error) {
	w, err := d.WAL()
	if err != nil {
		return nil, err
	}
	return w.Checkpoints()
}
