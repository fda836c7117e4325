package rawdata

import (
	"errors"
	"fmt"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
)

// RecordFunc decodes record rec into a flat buffer holding nbins*ncomp values
// in the reader's axis order.
type RecordFunc func(rec int) ([]float64, error)

// CheckRange validates 0 <= start <= end <= maxRec.
func CheckRange(start, end, maxRec int) error {
	if start < 0 || end < 0 {
		return fmt.Errorf("%w: negative record (%d, %d)", ErrInvalidRange, start, end)
	}
	if start > end {
		return fmt.Errorf("%w: start record %d after end record %d", ErrInvalidRange, start, end)
	}
	if end > maxRec {
		return fmt.Errorf("%w: end record %d beyond last record %d", ErrInvalidRange, end, maxRec)
	}
	return nil
}

// absorbable reports whether a per-record error may be handled by a
// MissingPolicy rather than aborting the read.
func absorbable(err error) bool {
	var se *StructureError
	if errors.As(err, &se) {
		return false
	}
	return errors.Is(err, ErrDataNotAvailable) || errors.Is(err, ErrCorruptRecord)
}

// ReadRecords reads records start..end one at a time through read and
// assembles them into a canonical array with nbins spatial shape and ncomp
// components. Failures are handled according to missing.
func ReadRecords(nbins [3]int, ncomp int, order field.AxisOrder, start, end int,
	missing MissingPolicy, read RecordFunc) (*field.Array, error) {

	if !missing.valid() {
		return nil, fmt.Errorf("%w: missing record policy %d", ErrInvalidRange, int(missing))
	}

	type slot struct {
		rec  int
		flat []float64 // nil means zeros
	}
	slots := make([]slot, 0, end-start+1)
	for rec := start; rec <= end; rec++ {
		flat, err := read(rec)
		if err == nil {
			slots = append(slots, slot{rec: rec, flat: flat})
			continue
		}
		if !absorbable(err) {
			return nil, &RecordError{Record: rec, Err: err}
		}
		switch missing {
		case Raise:
			logger.Errorf("record %d: %v", rec, err)
			// a corrupt record is also unavailable; errors.Is matches both
			if !errors.Is(err, ErrDataNotAvailable) {
				err = fmt.Errorf("%w: %w", ErrDataNotAvailable, err)
			}
			return nil, &RecordError{Record: rec, Err: err}
		case ReturnZeros:
			logger.Warnf("record %d: %v; returning zeros", rec, err)
			slots = append(slots, slot{rec: rec})
		case Skip:
			logger.Warnf("record %d: %v; reducing returned records by one", rec, err)
		}
	}

	out := field.New(nbins[0], nbins[1], nbins[2], len(slots), ncomp)
	labels := make([]int, len(slots))
	for i, s := range slots {
		labels[i] = s.rec
		if s.flat == nil {
			continue
		}
		if err := field.Place(out, s.flat, i, order); err != nil {
			return nil, &RecordError{Record: s.rec, Err: Corrupt("%v", err)}
		}
	}
	if err := out.SetRecords(labels); err != nil {
		return nil, err
	}
	return out, nil
}

// Restrict applies bin limits after a read. Unrestricted limits return a
// unchanged.
func Restrict(a *field.Array, limits grid.BinLimits) (*field.Array, error) {
	if limits.IsZero() {
		return a, nil
	}
	out, err := field.Slice(a, limits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return out, nil
}
