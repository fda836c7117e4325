package rawdata_test

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/rawdata"
)

var nbins = [3]int{2, 2, 1}

// constantRecords returns a RecordFunc whose record r is filled with r+1,
// and which reports the records in missing as absent.
func constantRecords(missing map[int]error) rawdata.RecordFunc {
	return func(rec int) ([]float64, error) {
		if err, ok := missing[rec]; ok {
			return nil, err
		}
		flat := make([]float64, 4)
		for i := range flat {
			flat[i] = float64(rec + 1)
		}
		return flat, nil
	}
}

var _ = Describe("ReadRecords", func() {
	var absent map[int]error

	BeforeEach(func() {
		absent = map[int]error{
			3: rawdata.NotAvailable("mbins.0000003", os.ErrNotExist),
		}
	})

	Context("when every record is present", func() {
		It("returns end-start+1 records labelled with their indices", func() {
			a, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 2, 5, rawdata.Raise, constantRecords(nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Shape()).To(Equal([5]int{2, 2, 1, 4, 1}))
			Expect(a.Records()).To(Equal([]int{2, 3, 4, 5}))
			Expect(a.At(1, 1, 0, 0, 0)).To(Equal(3.0))
		})

		It("is idempotent", func() {
			a, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 5, rawdata.Raise, constantRecords(nil))
			Expect(err).NotTo(HaveOccurred())
			b, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 5, rawdata.Raise, constantRecords(nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Equal(b)).To(BeTrue())
		})
	})

	Context("when record 3 of 0..5 is missing", func() {
		It("raises DataNotAvailable under raise", func() {
			_, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 5, rawdata.Raise, constantRecords(absent))
			Expect(err).To(MatchError(rawdata.ErrDataNotAvailable))

			var recErr *rawdata.RecordError
			Expect(err).To(BeAssignableToTypeOf(recErr))
			Expect(err.(*rawdata.RecordError).Record).To(Equal(3))
		})

		It("returns a zero slab at index 3 under returnzeros", func() {
			a, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 5, rawdata.ReturnZeros, constantRecords(absent))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.NumRecords()).To(Equal(6))
			Expect(a.IsZeroRecord(3)).To(BeTrue())
			Expect(a.IsZeroRecord(2)).To(BeFalse())
			Expect(a.Records()).To(Equal([]int{0, 1, 2, 3, 4, 5}))
		})

		It("returns five records and the kept indices under skip", func() {
			a, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 5, rawdata.Skip, constantRecords(absent))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.NumRecords()).To(Equal(5))
			Expect(a.Records()).To(Equal([]int{0, 1, 2, 4, 5}))
			Expect(a.At(0, 0, 0, 3, 0)).To(Equal(5.0))
		})
	})

	Context("when a record is structurally broken", func() {
		It("propagates regardless of policy", func() {
			broken := map[int]error{
				1: &rawdata.StructureError{Path: "0.1/U", Line: 22, Msg: "missing closing bracket"},
			}
			for _, p := range []rawdata.MissingPolicy{rawdata.Raise, rawdata.ReturnZeros, rawdata.Skip} {
				_, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 2, p, constantRecords(broken))
				Expect(err).To(MatchError(rawdata.ErrCorruptRecord), "policy %s", p)
			}
		})
	})

	Context("when a record fails to decode", func() {
		It("raises DataNotAvailable and keeps the corruption", func() {
			bad := map[int]error{2: rawdata.Corrupt("mbins.0000002: 12 bytes, expected 32")}
			_, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 3, rawdata.Raise, constantRecords(bad))
			Expect(err).To(MatchError(rawdata.ErrDataNotAvailable))
			Expect(err).To(MatchError(rawdata.ErrCorruptRecord))
			Expect(err.(*rawdata.RecordError).Record).To(Equal(2))
		})

		It("substitutes zeros under returnzeros", func() {
			bad := map[int]error{2: rawdata.Corrupt("mbins.0000002: 12 bytes, expected 32")}
			a, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 3, rawdata.ReturnZeros, constantRecords(bad))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.IsZeroRecord(2)).To(BeTrue())
		})
	})

	Context("when a record has the wrong size", func() {
		It("reports a corrupt record", func() {
			short := func(rec int) ([]float64, error) { return []float64{1, 2, 3}, nil }
			_, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 0, rawdata.Raise, short)
			Expect(err).To(MatchError(rawdata.ErrCorruptRecord))
		})
	})

	It("rejects an unknown policy", func() {
		_, err := rawdata.ReadRecords(nbins, 1, field.FortranOrder, 0, 0, rawdata.MissingPolicy(9), constantRecords(nil))
		Expect(err).To(MatchError(rawdata.ErrInvalidRange))
	})
})

var _ = Describe("CheckRange", func() {
	DescribeTable("record bounds",
		func(start, end, maxRec int, ok bool) {
			err := rawdata.CheckRange(start, end, maxRec)
			if ok {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(rawdata.ErrInvalidRange))
			}
		},
		Entry("single record", 0, 0, 0, true),
		Entry("full range", 0, 5, 5, true),
		Entry("start after end", 3, 2, 5, false),
		Entry("past the end", 0, 6, 5, false),
		Entry("negative start", -1, 2, 5, false),
		Entry("no data", 0, 0, -1, false),
	)
})

var _ = Describe("Restrict", func() {
	It("equals slicing the full read", func() {
		a, err := rawdata.ReadRecords([3]int{3, 2, 2}, 1, field.FortranOrder, 0, 1, rawdata.Raise,
			func(rec int) ([]float64, error) {
				flat := make([]float64, 12)
				for i := range flat {
					flat[i] = float64(100*rec + i)
				}
				return flat, nil
			})
		Expect(err).NotTo(HaveOccurred())

		limits := grid.BinLimits{grid.Span(1, 3), nil, grid.Span(0, 1)}
		got, err := rawdata.Restrict(a, limits)
		Expect(err).NotTo(HaveOccurred())
		want, err := field.Slice(a, limits)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Equal(want)).To(BeTrue())

		_, err = rawdata.Restrict(a, grid.BinLimits{grid.Span(0, 9), nil, nil})
		Expect(err).To(MatchError(rawdata.ErrInvalidRange))
	})
})

var _ = Describe("ParseMissingPolicy", func() {
	DescribeTable("names",
		func(name string, want rawdata.MissingPolicy) {
			p, err := rawdata.ParseMissingPolicy(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(want))
			Expect(p.String()).NotTo(BeEmpty())
		},
		Entry("default", "", rawdata.Raise),
		Entry("raise", "raise", rawdata.Raise),
		Entry("returnzeros", "returnzeros", rawdata.ReturnZeros),
		Entry("camel case", "returnZeros", rawdata.ReturnZeros),
		Entry("skip", "skip", rawdata.Skip),
	)

	It("rejects anything else", func() {
		_, err := rawdata.ParseMissingPolicy("ignore")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Resolve", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("finds a monolithic file and counts whole records", func() {
		Expect(os.WriteFile(filepath.Join(dir, "mbins"), make([]byte, 3*64+10), 0644)).To(Succeed())
		l, err := rawdata.Resolve(dir, "mbins", 64, 7, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(l.Mode).To(Equal(rawdata.Monolithic))
		Expect(l.MaxRec).To(Equal(2))
	})

	It("reports -1 for an empty monolithic file", func() {
		Expect(os.WriteFile(filepath.Join(dir, "mbins"), nil, 0644)).To(Succeed())
		l, err := rawdata.Resolve(dir, "mbins", 64, 7, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(l.MaxRec).To(Equal(-1))
	})

	It("uses the lexically last per-record suffix", func() {
		for _, rec := range []int{0, 1, 2, 9, 10} {
			name := fmt.Sprintf("vbins.%07d", rec)
			Expect(os.WriteFile(filepath.Join(dir, name), []byte{0}, 0644)).To(Succeed())
		}
		l, err := rawdata.Resolve(dir, "vbins", 8, 7, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(l.Mode).To(Equal(rawdata.PerRecordFile))
		Expect(l.MaxRec).To(Equal(10))
		Expect(l.RecordPath(3)).To(Equal(filepath.Join(dir, "vbins.0000003")))
	})

	It("tolerates a stray non-numeric suffix", func() {
		Expect(os.WriteFile(filepath.Join(dir, "vbins.0000001"), []byte{0}, 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "vbins.backup"), []byte{0}, 0644)).To(Succeed())
		l, err := rawdata.Resolve(dir, "vbins", 8, 7, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(l.MaxRec).To(Equal(0))
	})

	It("fails when neither form exists", func() {
		_, err := rawdata.Resolve(dir, "Tbins", 8, 7, 1)
		Expect(err).To(MatchError(rawdata.ErrDataNotAvailable))
	})

	It("builds step-numbered names with a multiplier and extension", func() {
		l := rawdata.Layout{Mode: rawdata.PerRecordFile, Dir: dir, Base: "grid", Width: 8, Multiplier: 100, Ext: ".vtr"}
		Expect(filepath.Base(l.RecordPath(3))).To(Equal("grid.00000300.vtr"))
	})
})
