// Package data reads the market input files (order books, trade lists,
// weekly prices, transfer capacity and ramp potential) and reads and writes
// the per-day transaction files.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParseError locates a malformed value in an input file. Line is 1-based and
// counts the header.
type ParseError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: column %q: %v", e.File, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errMissingColumn = errors.New("missing column")

// table is a header-indexed CSV body.
type table struct {
	file   string
	header map[string]int
	rows   [][]string
}

func readTable(r io.Reader, file string, sep rune, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{File: file, Line: 1, Err: errors.New("empty file")}
		}
		return nil, &ParseError{File: file, Line: 1, Err: err}
	}
	t := &table{file: file, header: make(map[string]int, len(head))}
	for i, h := range head {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			continue
		}
		t.header[h] = i
	}
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return nil, &ParseError{File: file, Line: 1, Column: col, Err: errMissingColumn}
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := len(t.rows) + 2
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &ParseError{File: file, Line: line, Err: err}
		}
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (t *table) has(col string) bool {
	_, ok := t.header[col]
	return ok
}

func (t *table) get(row int, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(t.rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][i])
}

func (t *table) errAt(row int, col string, err error) error {
	return &ParseError{File: t.file, Line: row + 2, Column: col, Err: err}
}

func (t *table) float(row int, col string, decimalComma bool) (float64, error) {
	v, err := parseDecimal(t.get(row, col), decimalComma)
	if err != nil {
		return 0, t.errAt(row, col, err)
	}
	return v, nil
}

// positive parses col and rejects zero, negative and NaN values.
func (t *table) positive(row int, col string, decimalComma bool) (float64, error) {
	v, err := t.float(row, col, decimalComma)
	if err != nil {
		return 0, err
	}
	if !(v > 0) {
		return 0, t.errAt(row, col, fmt.Errorf("must be positive, got %v", v))
	}
	return v, nil
}

// nonNegative parses col and rejects negative and NaN values.
func (t *table) nonNegative(row int, col string, decimalComma bool) (float64, error) {
	v, err := t.float(row, col, decimalComma)
	if err != nil {
		return 0, err
	}
	if !(v >= 0) {
		return 0, t.errAt(row, col, fmt.Errorf("must not be negative, got %v", v))
	}
	return v, nil
}

func (t *table) time(row int, col, layout string) (time.Time, error) {
	s := t.get(row, col)
	ts, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, t.errAt(row, col, err)
	}
	return ts, nil
}

// optionalTime parses col or returns the zero time when it is empty.
func (t *table) optionalTime(row int, col, layout string) (time.Time, error) {
	if t.get(row, col) == "" {
		return time.Time{}, nil
	}
	return t.time(row, col, layout)
}

func parseDecimal(s string, decimalComma bool) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty number")
	}
	if decimalComma {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "n", "no":
		return false, nil
	case "1", "true", "y", "yes":
		return true, nil
	}
	if v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
		return v != 0, nil
	}
	return false, fmt.Errorf("invalid flag %q", s)
}

// parseClock parses HH:MM into an offset from midnight. 24:00 is allowed.
func parseClock(s string) (time.Duration, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hh < 0 || hh > 24 || mm < 0 || mm > 59 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, nil
}

// OpenFile opens an input file, naming the path in the error.
func OpenFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// WriteFileAtomic writes through a temporary file in the target directory and
// renames it into place, so readers never see a partial file.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Record is one data row of a header-indexed CSV file.
type Record struct {
	t   *table
	row int
}

// Line is the 1-based file line of the record.
func (r Record) Line() int { return r.row + 2 }

func (r Record) Get(col string) string { return r.t.get(r.row, col) }

func (r Record) Float(col string) (float64, error) { return r.t.float(r.row, col, false) }

func (r Record) Positive(col string) (float64, error) { return r.t.positive(r.row, col, false) }

func (r Record) Int(col string) (int, error) {
	v, err := strconv.Atoi(r.Get(col))
	if err != nil {
		return 0, r.Err(col, err)
	}
	return v, nil
}

// Err wraps err in a ParseError pointing at col of this record.
func (r Record) Err(col string, err error) error { return r.t.errAt(r.row, col, err) }

// ScanCSV reads a comma separated file with a header row and calls fn for
// every non-blank record. Missing required columns fail before fn is called.
func ScanCSV(rd io.Reader, name string, required []string, fn func(Record) error) error {
	t, err := readTable(rd, name, ',', required...)
	if err != nil {
		return err
	}
	for i := range t.rows {
		if err := fn(Record{t: t, row: i}); err != nil {
			return err
		}
	}
	return nil
}
