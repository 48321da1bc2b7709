package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Header aliases tried, in order, when no explicit column is configured.
var (
	LatitudeAliases  = []string{"latitude", "lat", "y"}
	LongitudeAliases = []string{"longitude", "lon", "lng", "long", "x"}
)

// Record is one data row with its parsed coordinate pair. Fields is the full
// original row, coordinate columns included.
type Record struct {
	Index     int // 0-based data row index
	Latitude  float64
	Longitude float64
	Fields    []string
}

// Line returns the 1-based line of the record in the source file, counting
// the header.
func (r Record) Line() int { return r.Index + 2 }

// Valid reports whether the coordinate lies inside the WGS84 range.
func (r Record) Valid() bool { return ValidCoordinate(r.Latitude, r.Longitude) }

// ValidCoordinate reports whether lat ∈ [-90, 90] and lng ∈ [-180, 180].
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ParseError reports a coordinate cell that is not a number.
type ParseError struct {
	Row    int // 1-based line in the source file
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return "table: line " + strconv.Itoa(e.Row) + ": column " + strconv.Quote(e.Column) +
		": cannot parse " + strconv.Quote(e.Value) + " as a number"
}

func (e *ParseError) Unwrap() error { return e.Err }

// Resolve returns the index of the column selected by col. col is a header
// name (case-insensitive) or a 0-based position; an empty col tries aliases.
func (t *Table) Resolve(col string, aliases []string) (int, error) {
	col = strings.TrimSpace(col)
	if col == "" {
		for _, a := range aliases {
			if i := t.ColumnIndex(a); i >= 0 {
				return i, nil
			}
		}
		return -1, eris.Wrapf(ErrMissingColumn, "table: none of %v in header %v", aliases, t.Header)
	}

	if i := t.ColumnIndex(col); i >= 0 {
		return i, nil
	}
	if n, err := strconv.Atoi(col); err == nil && n >= 0 && n < len(t.Header) {
		return n, nil
	}
	return -1, eris.Wrapf(ErrMissingColumn, "table: column %q not in header %v", col, t.Header)
}

// Records parses every data row's coordinate pair from the latCol and lonCol
// columns. Rows with an unparsable or missing value fail with *ParseError.
// Out-of-range values parse successfully; callers check Record.Valid.
func (t *Table) Records(latCol, lonCol int) ([]Record, error) {
	decimalComma := t.Delimiter == ';'

	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		lat, err := parseCoordinate(cell(row, latCol), decimalComma)
		if err != nil {
			return nil, &ParseError{Row: i + 2, Column: t.Header[latCol], Value: cell(row, latCol), Err: err}
		}
		lng, err := parseCoordinate(cell(row, lonCol), decimalComma)
		if err != nil {
			return nil, &ParseError{Row: i + 2, Column: t.Header[lonCol], Value: cell(row, lonCol), Err: err}
		}
		records = append(records, Record{
			Index:     i,
			Latitude:  lat,
			Longitude: lng,
			Fields:    row,
		})
	}
	return records, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseCoordinate parses a decimal degree value. Semicolon-delimited exports
// commonly use a decimal comma, which is accepted when decimalComma is set.
func parseCoordinate(s string, decimalComma bool) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.New("table: empty value")
	}
	if decimalComma && strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrap(err, "table: parse float")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("table: %q is not a finite number", s)
	}
	return v, nil
}
