// Package header reads and writes the ASCII simulation header written next to
// MD bin output. Each line has the form
//
//	description ; key ; value
//
// and keys are unique. Fortran "D" exponents are accepted for numbers.
package header

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the header file looked up in a results directory.
const FileName = "simulation_header"

var (
	ErrNotFound = errors.New("header: key not found")
	ErrSyntax   = errors.New("header: malformed line")
)

type entry struct {
	description string
	value       string
}

type Header struct {
	keys    []string
	entries map[string]entry
}

func New() *Header {
	return &Header{entries: make(map[string]entry)}
}

// Read parses dir/simulation_header.
func Read(dir string) (*Header, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Header, error) {
	h := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ";")
		var desc, key, value string
		switch len(parts) {
		case 2:
			key, value = parts[0], parts[1]
		case 3:
			desc, key, value = parts[0], parts[1], parts[2]
		default:
			return nil, fmt.Errorf("%w: line %d: %q", ErrSyntax, lineNo, line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: line %d: empty key", ErrSyntax, lineNo)
		}
		h.Set(key, strings.TrimSpace(value), strings.TrimSpace(desc))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// Set adds or replaces key. Insertion order is kept for writing.
func (h *Header) Set(key, value, description string) {
	if _, ok := h.entries[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.entries[key] = entry{description: description, value: value}
}

func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

func (h *Header) Get(key string) (string, bool) {
	e, ok := h.entries[key]
	return e.value, ok
}

func (h *Header) Has(key string) bool {
	_, ok := h.entries[key]
	return ok
}

func (h *Header) Int(key string) (int, error) {
	v, ok := h.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// integers are occasionally written as reals
		f, ferr := parseFloat(v)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("header: %s: %w", key, err)
		}
		n = int(f)
	}
	return n, nil
}

func (h *Header) Float(key string) (float64, error) {
	v, ok := h.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	f, err := parseFloat(v)
	if err != nil {
		return 0, fmt.Errorf("header: %s: %w", key, err)
	}
	return f, nil
}

// Bool accepts 0/1 and the Fortran logical spellings.
func (h *Header) Bool(key string) (bool, error) {
	v, ok := h.Get(key)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	switch strings.ToLower(strings.Trim(v, ".")) {
	case "1", "t", "true":
		return true, nil
	case "0", "f", "false":
		return false, nil
	}
	return false, fmt.Errorf("header: %s: not a boolean: %q", key, v)
}

func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, k := range h.keys {
		e := h.entries[k]
		n, err := fmt.Fprintf(w, "%s;%s;%s\n", e.description, k, e.value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Write stores h as dir/simulation_header.
func (h *Header) Write(dir string) error {
	f, err := os.Create(filepath.Join(dir, FileName))
	if err != nil {
		return err
	}
	if _, err := h.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseFloat(s string) (float64, error) {
	s = strings.Map(func(r rune) rune {
		if r == 'D' || r == 'd' {
			return 'E'
		}
		return r
	}, s)
	return strconv.ParseFloat(s, 64)
}
