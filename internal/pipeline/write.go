package pipeline

import (
	"github.com/sells-group/revgeo/internal/table"
)

// Apply returns a copy of tbl with the address column set from results. An
// existing column of that name is overwritten in place; otherwise one is
// appended. Rows without a result get the sentinel.
func (p *Pipeline) Apply(tbl *table.Table, results []Result) (*table.Table, error) {
	values := make([]string, tbl.Len())
	for i := range values {
		values[i] = p.cfg.Sentinel
	}
	for _, r := range results {
		if r.Record.Index >= 0 && r.Record.Index < len(values) {
			values[r.Record.Index] = r.Address
		}
	}

	out := tbl.Clone()
	if _, err := out.SetColumn(p.cfg.AddressColumn, values); err != nil {
		return nil, err
	}
	return out, nil
}

// Write serialises tbl plus the address column to path, replacing any
// existing file. Failures are returned as *OutputWriteError.
func (p *Pipeline) Write(tbl *table.Table, results []Result, path string) error {
	out, err := p.Apply(tbl, results)
	if err != nil {
		return &OutputWriteError{Path: path, Err: err}
	}
	if err := table.Write(path, out); err != nil {
		return &OutputWriteError{Path: path, Err: err}
	}
	return nil
}
