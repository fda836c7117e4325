package field

import (
	"errors"
	"fmt"
)

var ErrComponents = errors.New("field: unsupported component count")

type Kind int

const (
	Scalar Kind = iota
	Vector
	Tensor
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Tensor:
		return "tensor"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Components is the number of values stored per bin, classified once when a
// reader is built.
type Components struct {
	Kind Kind
	N    int
}

// ClassifyComponents maps a per-bin value count to a Components. If allowed
// is non-empty, n must be one of its entries.
func ClassifyComponents(n int, allowed ...int) (Components, error) {
	if n < 1 {
		return Components{}, fmt.Errorf("%w: %d", ErrComponents, n)
	}
	if len(allowed) > 0 {
		ok := false
		for _, a := range allowed {
			if a == n {
				ok = true
				break
			}
		}
		if !ok {
			return Components{}, fmt.Errorf("%w: %d (expected one of %v)", ErrComponents, n, allowed)
		}
	}
	switch n {
	case 1:
		return Components{Kind: Scalar, N: 1}, nil
	case 3:
		return Components{Kind: Vector, N: 3}, nil
	}
	return Components{Kind: Tensor, N: n}, nil
}

func (c Components) String() string {
	if c.Kind == Tensor {
		return fmt.Sprintf("tensor(%d)", c.N)
	}
	return c.Kind.String()
}
