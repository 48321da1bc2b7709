package pipeline

import (
	"errors"
	"fmt"

	"github.com/sells-group/revgeo/internal/table"
)

// Load reads the input table at path and parses every row's coordinates.
// Any failure is an *InputFormatError: an unreadable file, a missing
// coordinate column, or a coordinate value that is not a number.
func (p *Pipeline) Load(path string) (*table.Table, []table.Record, error) {
	tbl, err := table.Read(path, p.cfg.Table)
	if err != nil {
		return nil, nil, &InputFormatError{Path: path, Reason: "cannot read table", Err: err}
	}

	records, err := p.Records(tbl)
	if err != nil {
		var ife *InputFormatError
		if errors.As(err, &ife) {
			ife.Path = path
		}
		return nil, nil, err
	}
	return tbl, records, nil
}

// Records resolves the coordinate columns of tbl and parses every data row.
// Coordinate cells are trimmed in place unless trimming is disabled; every
// other cell is left as read.
func (p *Pipeline) Records(tbl *table.Table) ([]table.Record, error) {
	latIdx, err := tbl.Resolve(p.cfg.LatColumn, table.LatitudeAliases)
	if err != nil {
		return nil, &InputFormatError{Column: columnLabel(p.cfg.LatColumn, "latitude"), Reason: "latitude column not found", Err: err}
	}
	lonIdx, err := tbl.Resolve(p.cfg.LonColumn, table.LongitudeAliases)
	if err != nil {
		return nil, &InputFormatError{Column: columnLabel(p.cfg.LonColumn, "longitude"), Reason: "longitude column not found", Err: err}
	}
	if latIdx == lonIdx {
		return nil, &InputFormatError{Column: tbl.Header[latIdx], Reason: "latitude and longitude resolve to the same column"}
	}
	if addr := tbl.ColumnIndex(p.cfg.AddressColumn); addr >= 0 && (addr == latIdx || addr == lonIdx) {
		return nil, &InputFormatError{Column: tbl.Header[addr], Reason: "address column would overwrite a coordinate column"}
	}

	if !p.cfg.Table.SkipTrim {
		tbl.TrimColumns(latIdx, lonIdx)
	}

	records, err := tbl.Records(latIdx, lonIdx)
	if err != nil {
		var pe *table.ParseError
		if errors.As(err, &pe) {
			return nil, &InputFormatError{
				Row:    pe.Row,
				Column: pe.Column,
				Reason: fmt.Sprintf("cannot parse %q as a number", pe.Value),
				Err:    pe.Err,
			}
		}
		return nil, &InputFormatError{Reason: "cannot parse coordinates", Err: err}
	}
	return records, nil
}

func columnLabel(col, fallback string) string {
	if col != "" {
		return col
	}
	return fallback
}
