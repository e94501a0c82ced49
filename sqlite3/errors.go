package sqlite3

import "github.com/cockroachdb/errors"

// Error kinds per spec §7. Call sites wrap these with errors.Wrapf so
// errors.Is still matches the sentinel after wrapping.
var (
	ErrInvalidDatabase  = errors.New("sqlite3: invalid database")
	ErrInvalidPageNumber = errors.New("sqlite3: invalid page number")
	ErrInvalidPageType  = errors.New("sqlite3: invalid page type")
	ErrNoCellData       = errors.New("sqlite3: cell carries no payload")
	ErrInvalidSQL       = errors.New("sqlite3: invalid schema SQL")
	ErrNoWriteAheadLog  = errors.New("sqlite3: database was opened without a WAL")
	ErrTruncation       = errors.New("sqlite3: short read")
)
