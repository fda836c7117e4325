package analysis

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"

	"github.com/san-kum/postproc/internal/field"
)

// ramp has value i + 10*j along component 0, 2 in component 1 and record r
// adds r.
func ramp(nrec int) *field.Array {
	a := field.New(3, 2, 2, nrec, 2)
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				for r := 0; r < nrec; r++ {
					a.Set(float64(i+10*j+r), i, j, k, r, 0)
					a.Set(2, i, j, k, r, 1)
				}
			}
		}
	}
	return a
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestProfile(t *testing.T) {
	a := ramp(2)
	px, err := Profile(a, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// mean over j of 10*j is 5, over r of r is 0.5
	for i, v := range px {
		if !closeTo(v, float64(i)+5.5) {
			t.Errorf("x profile[%d] = %f, want %f", i, v, float64(i)+5.5)
		}
	}
	py, err := Profile(a, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(py) != 2 || !closeTo(py[0], 1.5) || !closeTo(py[1], 11.5) {
		t.Errorf("unexpected y profile %v", py)
	}
	if _, err := Profile(a, 3, 0); err == nil {
		t.Error("expected error for axis 3")
	}
	if _, err := Profile(a, 0, 2); err == nil {
		t.Error("expected error for component 2")
	}
}

func TestTimeSeries(t *testing.T) {
	ts, err := TimeSeries(ramp(4), 0)
	if err != nil {
		t.Fatal(err)
	}
	for r, v := range ts {
		if !closeTo(v, 6+float64(r)) {
			t.Errorf("record %d: got %f, want %f", r, v, 6+float64(r))
		}
	}
}

func TestPerVolumeAndRatio(t *testing.T) {
	a := ramp(1)
	vol := sparse.ZerosDense(3, 2, 2, 1)
	for i := range vol.Elements {
		vol.Elements[i] = 0.5
	}
	d, err := PerVolume(a, vol)
	if err != nil {
		t.Fatal(err)
	}
	if d.At(2, 1, 0, 0, 0) != 24 || d.At(0, 0, 0, 0, 1) != 4 {
		t.Errorf("unexpected density %f %f", d.At(2, 1, 0, 0, 0), d.At(0, 0, 0, 0, 1))
	}
	if _, err := PerVolume(a, sparse.ZerosDense(2, 2, 2, 1)); err == nil {
		t.Error("expected shape error")
	}

	m := field.New(3, 2, 2, 1, 1)
	m.Set(4, 1, 1, 1, 0, 0)
	u, err := Ratio(a, m)
	if err != nil {
		t.Fatal(err)
	}
	if u.At(1, 1, 1, 0, 0) != 11.0/4 || u.At(0, 0, 0, 0, 0) != 0 {
		t.Errorf("unexpected ratio %f %f", u.At(1, 1, 1, 0, 0), u.At(0, 0, 0, 0, 0))
	}
	if _, err := Ratio(a, a); err == nil {
		t.Error("expected error for a two component denominator")
	}
}

func TestMagnitude(t *testing.T) {
	a := field.New(1, 1, 1, 2, 3)
	a.Set(3, 0, 0, 0, 1, 0)
	a.Set(4, 0, 0, 0, 1, 2)
	if err := a.SetRecords([]int{5, 9}); err != nil {
		t.Fatal(err)
	}
	m := Magnitude(a)
	if m.NumComponents() != 1 || m.At(0, 0, 0, 1, 0) != 5 || m.At(0, 0, 0, 0, 0) != 0 {
		t.Errorf("unexpected magnitude %v", m.Dense().Elements)
	}
	if r := m.Records(); r[0] != 5 || r[1] != 9 {
		t.Errorf("records not kept: %v", r)
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(ramp(1), 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Min != 2 || s.Max != 2 || s.Mean != 2 || s.StdDev != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
	s, err = Summarize(ramp(1), 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Min != 0 || s.Max != 12 || !closeTo(s.Mean, 6) {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestPowerSpectrum(t *testing.T) {
	n := 64
	series := make([]float64, n)
	for i := range series {
		series[i] = 3 + math.Sin(2*math.Pi*8*float64(i)/float64(n))
	}
	ps := PowerSpectrum(series)
	if len(ps) != n/2 {
		t.Fatalf("expected %d bins, got %d", n/2, len(ps))
	}
	peak := 0
	for i, v := range ps {
		if v > ps[peak] {
			peak = i
		}
	}
	if peak != 8 {
		t.Errorf("expected peak at bin 8, got %d", peak)
	}
	if ps[0] > 1e-9 {
		t.Errorf("mean not removed: %g", ps[0])
	}

	if got := len(PowerSpectrum(make([]float64, 5))); got != 4 {
		t.Errorf("expected padding to 8 samples, got %d bins", got)
	}
	freqs := Frequencies(64, 10)
	if !closeTo(freqs[8], 8.0/640) {
		t.Errorf("unexpected frequency %g", freqs[8])
	}
}
