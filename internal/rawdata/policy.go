package rawdata

import (
	"fmt"
	"strings"
)

// MissingPolicy decides what a read does with a record that cannot be read.
type MissingPolicy int

const (
	// Raise aborts the read with ErrDataNotAvailable.
	Raise MissingPolicy = iota
	// ReturnZeros keeps the record slot and fills it with zeros.
	ReturnZeros
	// Skip drops the record slot; the result has fewer records and its
	// Records() labels say which ones were kept.
	Skip
)

func (p MissingPolicy) String() string {
	switch p {
	case Raise:
		return "raise"
	case ReturnZeros:
		return "returnzeros"
	case Skip:
		return "skip"
	}
	return fmt.Sprintf("MissingPolicy(%d)", int(p))
}

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raise":
		return Raise, nil
	case "returnzeros", "return_zeros", "zeros":
		return ReturnZeros, nil
	case "skip":
		return Skip, nil
	}
	return Raise, fmt.Errorf("unknown missing record policy: %q (want raise, returnzeros or skip)", s)
}

func (p MissingPolicy) valid() bool {
	return p >= Raise && p <= Skip
}
