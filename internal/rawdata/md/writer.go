package md

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/rawdata"
)

type WriteOptions struct {
	// PerRecord writes fname.<record> files instead of one monolithic file.
	PerRecord bool
	DType     DType
	// DryRun reports the target paths without touching the filesystem.
	DryRun bool
}

// Write stores records start..end-1 of a under dir/fname in the layout Open
// reads back. The first record slot of a becomes record start. end < 0 means
// start plus the number of records in a. Monolithic output is written at the
// byte offset of record start, so existing earlier records are kept.
//
// It returns the paths written (or that would be written).
func Write(dir, fname string, a *field.Array, start, end int, opts WriteOptions) ([]string, error) {
	if !opts.DType.valid() {
		return nil, fmt.Errorf("%w: data type %v", rawdata.ErrUnsupportedFormat, opts.DType)
	}
	if end < 0 {
		end = start + a.NumRecords()
	}
	nrec := end - start
	if start < 0 || nrec < 0 || nrec > a.NumRecords() {
		return nil, fmt.Errorf("%w: records %d..%d from an array of %d", rawdata.ErrInvalidRange, start, end, a.NumRecords())
	}

	var paths []string
	if opts.PerRecord {
		layout := rawdata.Layout{Mode: rawdata.PerRecordFile, Dir: dir, Base: fname, Width: SuffixWidth, Multiplier: 1}
		for i := 0; i < nrec; i++ {
			path := layout.RecordPath(start + i)
			paths = append(paths, path)
			logger.Infof("writing record %d to %s", start+i, path)
			if opts.DryRun {
				continue
			}
			flat, err := field.Flatten(a.Record(i), field.FortranOrder)
			if err != nil {
				return paths, err
			}
			if err := os.WriteFile(path, opts.DType.encode(flat), 0644); err != nil {
				return paths, err
			}
		}
		return paths, nil
	}

	path := filepath.Join(dir, fname)
	paths = append(paths, path)
	logger.Infof("writing records %d..%d to %s", start, end-1, path)
	if opts.DryRun || nrec == 0 {
		return paths, nil
	}

	s := a.Shape()
	stride := int64(s[0] * s[1] * s[2] * s[4] * opts.DType.Size())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return paths, err
	}
	for i := 0; i < nrec; i++ {
		flat, ferr := field.Flatten(a.Record(i), field.FortranOrder)
		if ferr != nil {
			f.Close()
			return paths, ferr
		}
		if _, err := f.WriteAt(opts.DType.encode(flat), int64(start+i)*stride); err != nil {
			f.Close()
			return paths, err
		}
	}
	return paths, f.Close()
}
