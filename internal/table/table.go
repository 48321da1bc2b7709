// Package table reads and writes the coordinate tables consumed by the
// reverse geocoding pipeline: delimited text (CSV, semicolon CSV, TSV) and XLSX.
package table

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format identifies a table file format.
type Format string

// Supported formats.
const (
	FormatDelimited Format = "delimited"
	FormatXLSX      Format = "xlsx"
)

// ErrMissingColumn is returned when a coordinate column cannot be resolved.
var ErrMissingColumn = eris.New("table: missing column")

// Options configures reading a table.
type Options struct {
	Delimiter  rune   // 0 = detect from the header line
	Encoding   string // "" = UTF-8; otherwise any WHATWG label, e.g. "latin1"
	Sheet      string // XLSX sheet name; "" = first sheet
	SkipTrim   bool   // keep surrounding whitespace in headers (and coordinate cells)
	LazyQuotes bool
}

// Table is an in-memory table: a header row followed by data rows.
type Table struct {
	Header    []string
	Rows      [][]string
	Format    Format
	Delimiter rune
	Sheet     string
}

// FormatFor returns the format implied by a file path's extension.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatDelimited
}

// Read loads the table at path, choosing the reader by file extension.
func Read(path string, opts Options) (*Table, error) {
	var (
		t   *Table
		err error
	)
	switch FormatFor(path) {
	case FormatXLSX:
		t, err = readXLSX(path, opts)
	default:
		return readDelimitedFile(path, opts)
	}
	if err != nil {
		return nil, err
	}
	if !opts.SkipTrim {
		t.clean()
	}
	return t, nil
}

// Write serialises t to path, replacing any existing file. The format comes
// from the path's extension; delimited output keeps t.Delimiter unless the
// extension is .tsv.
func Write(path string, t *Table) error {
	switch FormatFor(path) {
	case FormatXLSX:
		return writeXLSX(path, t)
	default:
		delim := t.Delimiter
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			delim = '\t'
		}
		return writeDelimitedFile(path, t, delim)
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the index of the header matching name case-insensitively,
// or -1.
func (t *Table) ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// SetColumn writes values into the column called name, overwriting an existing
// column of that name or appending a new one. Short rows are padded first.
// values must have one entry per data row.
func (t *Table) SetColumn(name string, values []string) (int, error) {
	if len(values) != len(t.Rows) {
		return -1, eris.Errorf("table: column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}

	idx := t.ColumnIndex(name)
	if idx < 0 {
		t.Header = append(t.Header, name)
		idx = len(t.Header) - 1
	}

	for i := range t.Rows {
		t.Rows[i] = pad(t.Rows[i], len(t.Header))
		t.Rows[i][idx] = values[i]
	}
	return idx, nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c := *t
	c.Header = append([]string(nil), t.Header...)
	c.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		c.Rows[i] = append([]string(nil), r...)
	}
	return &c
}

// TrimColumns trims surrounding whitespace from the cells of the given
// columns. Other cells are left untouched.
func (t *Table) TrimColumns(cols ...int) {
	for _, row := range t.Rows {
		for _, c := range cols {
			if c >= 0 && c < len(row) {
				row[c] = strings.TrimSpace(row[c])
			}
		}
	}
}

// clean trims whitespace in headers. Data rows are kept as read.
func (t *Table) clean() {
	for i, h := range t.Header {
		t.Header[i] = strings.TrimSpace(h)
	}
}

func pad(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

// split separates the header row from the data rows.
func split(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, eris.New("table: file is empty")
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}
