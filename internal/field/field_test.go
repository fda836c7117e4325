package field_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
)

// sequence returns 0, 1, 2, ... n-1.
func sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// TestReshapeFortranOrder checks that x varies fastest and the record axis
// slowest, with components between z and record.
func TestReshapeFortranOrder(t *testing.T) {
	shape := [5]int{2, 3, 2, 2, 3}
	a, err := field.Reshape(sequence(72), shape, field.FortranOrder)
	require.NoError(t, err)
	require.Equal(t, shape, a.Shape())

	// flat = i + 2*(j + 3*(k + 2*(c + 3*r)))
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 2; k++ {
				for r := 0; r < 2; r++ {
					for c := 0; c < 3; c++ {
						want := float64(i + 2*(j+3*(k+2*(c+3*r))))
						require.Equal(t, want, a.At(i, j, k, r, c))
					}
				}
			}
		}
	}
}

// TestReshapeInterleavedOrder checks that components of one bin are adjacent.
func TestReshapeInterleavedOrder(t *testing.T) {
	shape := [5]int{2, 2, 1, 1, 3}
	a, err := field.Reshape(sequence(12), shape, field.InterleavedOrder)
	require.NoError(t, err)

	require.Equal(t, 0.0, a.At(0, 0, 0, 0, 0))
	require.Equal(t, 2.0, a.At(0, 0, 0, 0, 2))
	require.Equal(t, 3.0, a.At(1, 0, 0, 0, 0))
	require.Equal(t, 6.0, a.At(0, 1, 0, 0, 0))
}

// TestReshapeInterleavedCOrder checks that z varies fastest among spatial axes.
func TestReshapeInterleavedCOrder(t *testing.T) {
	shape := [5]int{2, 1, 2, 1, 1}
	a, err := field.Reshape(sequence(4), shape, field.InterleavedCOrder)
	require.NoError(t, err)

	require.Equal(t, 1.0, a.At(0, 0, 1, 0, 0))
	require.Equal(t, 2.0, a.At(1, 0, 0, 0, 0))
}

// TestFlattenInvertsReshape checks the round trip for every named order.
func TestFlattenInvertsReshape(t *testing.T) {
	shape := [5]int{3, 2, 2, 4, 3}
	flat := sequence(3 * 2 * 2 * 4 * 3)
	for _, o := range []field.AxisOrder{field.FortranOrder, field.InterleavedOrder, field.InterleavedCOrder} {
		a, err := field.Reshape(flat, shape, o)
		require.NoError(t, err)
		back, err := field.Flatten(a, o)
		require.NoError(t, err)
		require.Equal(t, flat, back, "order %v", o)
	}
}

// TestReshapeSizeMismatch checks that a partial record is rejected.
func TestReshapeSizeMismatch(t *testing.T) {
	_, err := field.Reshape(sequence(11), [5]int{2, 2, 1, 1, 3}, field.InterleavedOrder)
	require.True(t, errors.Is(err, field.ErrShape))
}

// TestInvalidOrder checks that repeated axes are rejected.
func TestInvalidOrder(t *testing.T) {
	bad := field.AxisOrder{field.AxisX, field.AxisX, field.AxisZ, field.AxisRecord, field.AxisComponent}
	_, err := field.Reshape(sequence(1), [5]int{1, 1, 1, 1, 1}, bad)
	require.Error(t, err)
}

// TestPlaceAtSlot checks that one record can be placed into a later slot.
func TestPlaceAtSlot(t *testing.T) {
	a := field.New(2, 1, 1, 3, 1)
	require.NoError(t, field.Place(a, []float64{5, 6}, 2, field.FortranOrder))
	require.True(t, a.IsZeroRecord(0))
	require.True(t, a.IsZeroRecord(1))
	require.Equal(t, 6.0, a.At(1, 0, 0, 2, 0))

	err := field.Place(a, []float64{1, 2, 3, 4}, 2, field.FortranOrder)
	require.True(t, errors.Is(err, field.ErrShape))
}

// TestSlice checks the region window on spatial axes only.
func TestSlice(t *testing.T) {
	a, err := field.Reshape(sequence(4*3*2*2*1), [5]int{4, 3, 2, 2, 1}, field.FortranOrder)
	require.NoError(t, err)

	s, err := field.Slice(a, grid.BinLimits{grid.Span(1, 3), nil, grid.Span(1, 2)})
	require.NoError(t, err)
	require.Equal(t, [5]int{2, 3, 1, 2, 1}, s.Shape())
	require.Equal(t, a.At(2, 1, 1, 1, 0), s.At(1, 1, 0, 1, 0))

	full, err := field.Slice(a, grid.BinLimits{})
	require.NoError(t, err)
	require.True(t, full.Equal(a))

	_, err = field.Slice(a, grid.BinLimits{nil, grid.Span(0, 4), nil})
	require.True(t, errors.Is(err, grid.ErrInvalidLimits))
}

// TestRecordLabels checks the record index bookkeeping.
func TestRecordLabels(t *testing.T) {
	a := field.New(1, 1, 1, 3, 1)
	require.Equal(t, []int{0, 1, 2}, a.Records())
	require.NoError(t, a.SetRecords([]int{4, 6, 7}))
	require.Equal(t, []int{4, 6, 7}, a.Records())
	require.Error(t, a.SetRecords([]int{1}))

	b := a.Clone()
	require.True(t, a.Equal(b))
	b.Set(1, 0, 0, 0, 1, 0)
	require.False(t, a.Equal(b))

	one := b.Record(1)
	require.Equal(t, []int{6}, one.Records())
	require.Equal(t, 1.0, one.At(0, 0, 0, 0, 0))
}

// TestClassifyComponents checks the scalar/vector/tensor classification.
func TestClassifyComponents(t *testing.T) {
	c, err := field.ClassifyComponents(1)
	require.NoError(t, err)
	require.Equal(t, field.Scalar, c.Kind)

	c, err = field.ClassifyComponents(3, 1, 3)
	require.NoError(t, err)
	require.Equal(t, field.Vector, c.Kind)

	c, err = field.ClassifyComponents(9)
	require.NoError(t, err)
	require.Equal(t, "tensor(9)", c.String())

	_, err = field.ClassifyComponents(2, 1, 3)
	require.True(t, errors.Is(err, field.ErrComponents))

	_, err = field.ClassifyComponents(0)
	require.True(t, errors.Is(err, field.ErrComponents))
}
