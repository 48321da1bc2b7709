package table

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

const defaultSheetName = "Sheet1"

func readXLSX(path string, opts Options) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "table: open xlsx")
	}

	sheet, err := getSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		records = append(records, rowToStrings(row))
	}
	records = trimTrailingBlank(records)

	t, err := split(records)
	if err != nil {
		return nil, err
	}
	t.Format = FormatXLSX
	t.Delimiter = ','
	t.Sheet = sheet.Name
	return t, nil
}

func writeXLSX(path string, t *Table) error {
	name := t.Sheet
	if name == "" {
		name = defaultSheetName
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrap(err, "table: add xlsx sheet")
	}

	addRow(sheet, t.Header)
	for _, r := range t.Rows {
		addRow(sheet, r)
	}

	return eris.Wrap(f.Save(path), "table: save xlsx")
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("table: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("table: xlsx has no sheets")
	}
	return f.Sheets[0], nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cellValue(cell)
	}
	return cells
}

// cellValue returns the stored value of numeric cells, ignoring any display
// number format so coordinates keep their full precision. Dates and every
// other cell type use the formatted value.
func cellValue(cell *xlsx.Cell) string {
	if cell.Type() != xlsx.CellTypeNumeric || cell.IsTime() {
		return cell.String()
	}
	v, err := cell.GeneralNumericWithoutScientific()
	if err != nil {
		return cell.Value
	}
	return v
}

func trimTrailingBlank(records [][]string) [][]string {
	for len(records) > 0 && isBlank(records[len(records)-1]) {
		records = records[:len(records)-1]
	}
	return records
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
