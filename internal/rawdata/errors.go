package rawdata

import (
	"errors"
	"fmt"
)

var (
	// ErrDataNotAvailable: a required file or header is absent or unreadable.
	ErrDataNotAvailable = errors.New("rawdata: data not available")

	// ErrCorruptRecord: malformed binary or ASCII structure, or a size that
	// does not match the declared bin and component counts.
	ErrCorruptRecord = errors.New("rawdata: corrupt record")

	// ErrInvalidRange: bad record bounds or bin limits.
	ErrInvalidRange = errors.New("rawdata: invalid range")

	// ErrUnsupportedFormat: an element type or component count the reader
	// does not recognise.
	ErrUnsupportedFormat = errors.New("rawdata: unsupported format")
)

// RecordError attaches the record index to a per-record failure.
type RecordError struct {
	Record int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Record, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// StructureError reports a file whose internal structure is broken (for
// example mismatched list brackets). It unwraps to ErrCorruptRecord but is
// never absorbed by a MissingPolicy: the file itself is unreliable.
type StructureError struct {
	Path string
	Line int
	Msg  string
}

func (e *StructureError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *StructureError) Unwrap() error {
	return ErrCorruptRecord
}

// NotAvailable wraps err (typically from os.Open) as ErrDataNotAvailable.
func NotAvailable(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDataNotAvailable, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrDataNotAvailable, what, err)
}

// Corrupt formats an ErrCorruptRecord.
func Corrupt(format string, v ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptRecord, fmt.Sprintf(format, v...))
}
