package openfoam

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/batchatco/go-thrower"

	"github.com/san-kum/postproc/internal/rawdata"
)

// cellList is the content of a field entry: either one value per cell or a
// single uniform value.
type cellList struct {
	values  [][]float64
	uniform []float64
}

// width is the number of components of the first entry.
func (l *cellList) width() int {
	if l.uniform != nil {
		return len(l.uniform)
	}
	if len(l.values) == 0 {
		return 0
	}
	return len(l.values[0])
}

// flatten lays the list out component fastest, one cell after another.
func (l *cellList) flatten(ncells, ncomp int) ([]float64, error) {
	out := make([]float64, 0, ncells*ncomp)
	if l.uniform != nil {
		if len(l.uniform) != ncomp {
			return nil, rawdata.Corrupt("uniform value has %d components, expected %d", len(l.uniform), ncomp)
		}
		for i := 0; i < ncells; i++ {
			out = append(out, l.uniform...)
		}
		return out, nil
	}
	if len(l.values) != ncells {
		return nil, rawdata.Corrupt("%d entries for %d cells", len(l.values), ncells)
	}
	for i, v := range l.values {
		if len(v) != ncomp {
			return nil, rawdata.Corrupt("entry %d has %d components, expected %d", i, len(v), ncomp)
		}
		out = append(out, v...)
	}
	return out, nil
}

// listParser reads OpenFOAM list entries line by line. Malformed input is
// thrown and recovered at the exported boundary.
type listParser struct {
	path string
	sc   *bufio.Scanner
	line int
}

func newListParser(r io.Reader, path string) *listParser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &listParser{path: path, sc: sc}
}

func (p *listParser) fail(format string, v ...any) {
	thrower.Throw(&rawdata.StructureError{Path: p.path, Line: p.line, Msg: fmt.Sprintf(format, v...)})
}

func (p *listParser) assert(condition bool, format string, v ...any) {
	if condition {
		return
	}
	p.fail(format, v...)
}

func (p *listParser) next() (string, bool) {
	if !p.sc.Scan() {
		thrower.ThrowIfError(p.sc.Err())
		return "", false
	}
	p.line++
	return strings.TrimSpace(p.sc.Text()), true
}

func (p *listParser) mustNext(what string) string {
	s, ok := p.next()
	p.assert(ok, "unexpected end of file, expected %s", what)
	return s
}

// numbers parses whitespace separated values. A bad number makes the record
// corrupt but does not say anything about the list structure.
func (p *listParser) numbers(s string) []float64 {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			thrower.Throw(rawdata.Corrupt("%s:%d: %v", p.path, p.line, err))
		}
		out[i] = v
	}
	return out
}

// entry parses one list element: "(a b c)" or a bare scalar.
func (p *listParser) entry(s string) []float64 {
	if strings.HasPrefix(s, "(") {
		p.assert(strings.HasSuffix(s, ")"), "unterminated tuple %q", s)
		inner := s[1 : len(s)-1]
		p.assert(!strings.ContainsAny(inner, "()"), "nested brackets in %q", s)
		return p.numbers(inner)
	}
	p.assert(!strings.ContainsAny(s, "()"), "unbalanced bracket in %q", s)
	v := p.numbers(s)
	p.assert(len(v) == 1, "expected one value, got %q", s)
	return v
}

// block reads "(", count entries, one per line, and ")".
func (p *listParser) block(count int) [][]float64 {
	open := p.mustNext("'('")
	p.assert(open == "(", "expected '(' to open a list of %d entries, got %q", count, open)
	out := make([][]float64, 0, min(count, 1<<16))
	for i := 0; i < count; i++ {
		s := p.mustNext("list entry")
		p.assert(!strings.HasPrefix(s, ")"), "list closed after %d of %d entries", i, count)
		out = append(out, p.entry(s))
	}
	closing := p.mustNext("')'")
	p.assert(strings.HasPrefix(closing, ")"), "expected ')' after %d entries, got %q", count, closing)
	return out
}

// inline parses the one-line form "N(a b c)" or "N((a b c) (d e f))".
func (p *listParser) inline(s string) [][]float64 {
	s = strings.TrimSuffix(strings.TrimSpace(strings.ReplaceAll(s, "\t", " ")), ";")
	open := strings.IndexByte(s, '(')
	p.assert(open > 0 && strings.HasSuffix(s, ")"), "malformed inline list %q", s)
	count := p.count(s[:open])
	p.assert(strings.Count(s, "(") == strings.Count(s, ")"), "unbalanced brackets in %q", s)

	var out [][]float64
	body := strings.TrimSpace(s[open+1 : len(s)-1])
	for body != "" {
		if body[0] == '(' {
			end := strings.IndexByte(body, ')')
			p.assert(end > 0, "unterminated tuple in %q", s)
			out = append(out, p.entry(body[:end+1]))
			body = strings.TrimSpace(body[end+1:])
			continue
		}
		tok, rest, _ := strings.Cut(body, " ")
		out = append(out, p.entry(tok))
		body = strings.TrimSpace(rest)
	}
	p.assert(len(out) == count, "inline list declares %d entries, holds %d", count, len(out))
	return out
}

func (p *listParser) count(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	p.assert(err == nil && n >= 0, "expected an entry count, got %q", s)
	return n
}

// named scans for the entry called name and reads its value.
func (p *listParser) named(name string) *cellList {
	for {
		s, ok := p.next()
		if !ok {
			thrower.Throw(rawdata.NotAvailable(fmt.Sprintf("%s: no %s entry", p.path, name), nil))
		}
		rest, found := strings.CutPrefix(s, name)
		if !found || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		return p.value(strings.TrimSpace(rest))
	}
}

func (p *listParser) value(rest string) *cellList {
	if v, ok := strings.CutPrefix(rest, "uniform"); ok {
		v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), ";"))
		return &cellList{uniform: p.entry(v)}
	}
	v, ok := strings.CutPrefix(rest, "nonuniform")
	p.assert(ok, "expected uniform or nonuniform, got %q", rest)
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "List<") {
		end := strings.IndexByte(v, '>')
		p.assert(end > 0, "malformed list type %q", v)
		v = strings.TrimSpace(v[end+1:])
	}
	if strings.TrimSuffix(v, ";") != "" {
		return &cellList{values: p.inline(v)}
	}
	return &cellList{values: p.block(p.count(p.mustNext("entry count")))}
}

// bare reads the first unnamed list of the file, as in polyMesh/points.
func (p *listParser) bare() [][]float64 {
	for {
		s, ok := p.next()
		if !ok {
			thrower.Throw(rawdata.NotAvailable(fmt.Sprintf("%s: no list", p.path), nil))
		}
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return p.block(n)
		}
		if open := strings.IndexByte(s, '('); open > 0 {
			if _, err := strconv.Atoi(s[:open]); err == nil {
				return p.inline(s)
			}
		}
	}
}

// readField reads the named entry (normally internalField) of a field file.
func readField(r io.Reader, path, name string) (l *cellList, err error) {
	defer thrower.RecoverError(&err)
	return newListParser(r, path).named(name), nil
}

func readPoints(r io.Reader, path string) (pts [][]float64, err error) {
	defer thrower.RecoverError(&err)
	return newListParser(r, path).bare(), nil
}
