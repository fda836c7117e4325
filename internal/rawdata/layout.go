package rawdata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/postproc/internal/logging"
)

var logger = logging.Default()

type Mode int

const (
	// Monolithic: every record is concatenated in one growing file.
	Monolithic Mode = iota
	// PerRecordFile: one file (or directory) per record.
	PerRecordFile
)

func (m Mode) String() string {
	if m == Monolithic {
		return "monolithic"
	}
	return "per-record"
}

// Layout says where the records of one field live on disk. MaxRec is -1 when
// no record was found.
type Layout struct {
	Mode   Mode
	MaxRec int
	Dir    string
	Base   string

	// Stride is the size of one record in bytes (binary monolithic only).
	Stride int64

	// Per-record naming: Base.<step zero-padded to Width><Ext>, where
	// step = record * Multiplier.
	Width      int
	Multiplier int
	Ext        string

	// Paths lists per-record paths explicitly, replacing the naming pattern.
	Paths []string
}

// Path returns the monolithic file.
func (l Layout) Path() string {
	return filepath.Join(l.Dir, l.Base)
}

// RecordPath returns the file holding record rec in per-record mode.
func (l Layout) RecordPath(rec int) string {
	if l.Paths != nil {
		if rec < 0 || rec >= len(l.Paths) {
			return ""
		}
		return l.Paths[rec]
	}
	mult := l.Multiplier
	if mult == 0 {
		mult = 1
	}
	name := fmt.Sprintf("%s.%0*d%s", l.Base, l.Width, rec*mult, l.Ext)
	return filepath.Join(l.Dir, name)
}

// Resolve inspects dir for base (monolithic) or base.<n> (per-record).
// stride is the size of one record in bytes and is used to count monolithic
// records. In per-record mode the last file in lexical order gives MaxRec,
// so suffix widths must be consistent.
func Resolve(dir, base string, stride int64, width, multiplier int) (Layout, error) {
	l := Layout{Dir: dir, Base: base, Stride: stride, Width: width, Multiplier: multiplier, MaxRec: -1}
	if l.Multiplier == 0 {
		l.Multiplier = 1
	}

	if fi, err := os.Stat(l.Path()); err == nil && fi.Mode().IsRegular() {
		l.Mode = Monolithic
		if stride <= 0 {
			return l, fmt.Errorf("%w: record stride %d", ErrUnsupportedFormat, stride)
		}
		l.MaxRec = int(fi.Size()/stride) - 1
		if fi.Size()%stride != 0 {
			logger.Warnf("%s: %d trailing bytes after record %d ignored", l.Path(), fi.Size()%stride, l.MaxRec)
		}
		return l, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, globEscape(base)+".*"))
	if err != nil {
		return l, err
	}
	if len(matches) == 0 {
		return l, NotAvailable(fmt.Sprintf("neither %s nor %s.* exist in %s", base, base, dir), nil)
	}
	sort.Strings(matches)
	l.Mode = PerRecordFile
	l.MaxRec = suffixRecord(matches[len(matches)-1], l.Multiplier)
	return l, nil
}

// suffixRecord parses the trailing integer of name. A bad suffix (for example
// a stray wildcard in the name) is logged and counts as record 0.
func suffixRecord(name string, multiplier int) int {
	suffix := name[strings.LastIndex(name, ".")+1:]
	n, err := strconv.Atoi(suffix)
	if err != nil {
		logger.Warnf("error in last record, maybe '*' in filename? %s", name)
		return 0
	}
	return n / multiplier
}

func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
