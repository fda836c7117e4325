package grid

import "fmt"

// Window is a half-open index range [Lo, Hi) along one axis.
type Window struct {
	Lo, Hi int
}

// Span is shorthand for &Window{lo, hi}.
func Span(lo, hi int) *Window {
	return &Window{Lo: lo, Hi: hi}
}

// BinLimits restricts each spatial axis independently, x first. A nil or
// absent entry keeps the full axis, so a nil BinLimits selects every bin.
type BinLimits []*Window

// Axis returns the window of axis ax, nil when it is unrestricted.
func (b BinLimits) Axis(ax int) *Window {
	if ax >= len(b) {
		return nil
	}
	return b[ax]
}

// IsZero reports whether no axis is restricted.
func (b BinLimits) IsZero() bool {
	return b.Axis(0) == nil && b.Axis(1) == nil && b.Axis(2) == nil
}

// Resolve turns b into concrete per-axis [lo, hi) bounds for a grid with the
// given bin counts.
func (b BinLimits) Resolve(counts [3]int) (lo, hi [3]int, err error) {
	if len(b) > 3 {
		return lo, hi, fmt.Errorf("%w: %d axes", ErrInvalidLimits, len(b))
	}
	for ax := 0; ax < 3; ax++ {
		lo[ax], hi[ax] = 0, counts[ax]
		w := b.Axis(ax)
		if w == nil {
			continue
		}
		if w.Lo < 0 || w.Hi > counts[ax] || w.Lo >= w.Hi {
			return lo, hi, fmt.Errorf("%w: axis %d window [%d, %d) outside 0..%d",
				ErrInvalidLimits, ax, w.Lo, w.Hi, counts[ax])
		}
		lo[ax], hi[ax] = w.Lo, w.Hi
	}
	return lo, hi, nil
}

func (b BinLimits) String() string {
	s := "["
	for ax := 0; ax < 3; ax++ {
		if ax > 0 {
			s += " "
		}
		w := b.Axis(ax)
		if w == nil {
			s += ":"
			continue
		}
		s += fmt.Sprintf("%d:%d", w.Lo, w.Hi)
	}
	return s + "]"
}
