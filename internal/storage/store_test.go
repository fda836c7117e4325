package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/rawdata"
)

func sample(nx, ny, nz, nrec, ncomp int) *field.Array {
	a := field.New(nx, ny, nz, nrec, ncomp)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				for r := 0; r < nrec; r++ {
					for c := 0; c < ncomp; c++ {
						a.Set(float64(i)+0.5*float64(j)-float64(k)+10*float64(r)+0.25*float64(c), i, j, k, r, c)
					}
				}
			}
		}
	}
	return a
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	top, err := grid.NewCartesian([3]int{6, 4, 2}, [3]float64{6, 4, 2})
	if err != nil {
		t.Fatal(err)
	}
	limits := grid.BinLimits{grid.Span(1, 4), nil, nil}
	a := sample(3, 4, 2, 2, 3)
	if err := a.SetRecords([]int{4, 7}); err != nil {
		t.Fatal(err)
	}

	id, err := st.Save(Extraction{Source: "/data/run", Format: "md", Field: "vbins", Components: "vector", Missing: "skip"}, top, limits, a)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if id == "" {
		t.Error("expected non-empty extraction id")
	}

	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Field != "vbins" || meta.Source != "/data/run" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if len(meta.Records) != 2 || meta.Records[0] != 4 || meta.Records[1] != 7 {
		t.Errorf("expected records [4 7], got %v", meta.Records)
	}
	if meta.BinLimits != "[1:4 : :]" {
		t.Errorf("unexpected bin limits %q", meta.BinLimits)
	}

	r, meta, err := st.Open(id)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if r.MaxRec() != 1 {
		t.Errorf("expected maxrec 1, got %d", r.MaxRec())
	}
	if r.Topology().Counts() != [3]int{3, 4, 2} {
		t.Errorf("unexpected counts %v", r.Topology().Counts())
	}
	got, err := r.Read(0, 1, nil, rawdata.Raise)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Shape() != a.Shape() {
		t.Fatalf("shape %v, want %v", got.Shape(), a.Shape())
	}
	if got.At(2, 3, 1, 1, 2) != a.At(2, 3, 1, 1, 2) {
		t.Errorf("value mismatch: %f != %f", got.At(2, 3, 1, 1, 2), a.At(2, 3, 1, 1, 2))
	}
	if _, err := os.Stat(filepath.Join(tmpDir, id, "simulation_header")); err != nil {
		t.Errorf("header missing: %v", err)
	}
}

func TestSaveShapeMismatch(t *testing.T) {
	st := New(t.TempDir())
	top, _ := grid.NewCartesian([3]int{6, 4, 2}, [3]float64{6, 4, 2})
	if _, err := st.Save(Extraction{Field: "mbins"}, top, nil, sample(3, 4, 2, 1, 1)); err == nil {
		t.Error("expected shape mismatch error")
	}
	if _, err := st.Save(Extraction{}, top, nil, sample(6, 4, 2, 1, 1)); err == nil {
		t.Error("expected error for missing field name")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	top, _ := grid.NewCartesian([3]int{2, 2, 2}, [3]float64{1, 1, 1})
	for _, name := range []string{"mbins", "Tbins"} {
		if _, err := st.Save(Extraction{Field: name}, top, nil, sample(2, 2, 2, 1, 1)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Field != "mbins" || runs[1].Field != "Tbins" {
		t.Errorf("unexpected order: %s, %s", runs[0].Field, runs[1].Field)
	}
}
