package viz

import (
	"strings"
	"testing"
)

func TestKeyValues(t *testing.T) {
	out := KeyValues("vbins", []Field{F("bins", [3]int{4, 4, 2}), F("records", 12)})
	for _, want := range []string{"vbins", "bins", "[4 4 2]", "records", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProgressBar(t *testing.T) {
	for _, p := range []float64{-1, 0, 0.3, 0.75, 1, 2} {
		bar := ProgressBar(p, 10)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("percent %g: bar has %d cells", p, n)
		}
	}
}
