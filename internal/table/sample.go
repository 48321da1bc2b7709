package table

import (
	"os"

	"github.com/rotisserie/eris"
)

// sampleCoordinates is a small set of points in northwestern Saudi Arabia
// used to smoke-test a provider key.
var sampleCoordinates = [][]string{
	{"27.340833", "35.708333"},
	{"26.255833", "36.444444"},
	{"28.451389", "36.504722"},
	{"28.396951", "36.525397"},
	{"28.410278", "36.545278"},
	{"28.421136", "36.565740"},
	{"28.356111", "36.567222"},
	{"28.423833", "36.569083"},
	{"28.416944", "36.582500"},
}

// Sample returns the sample coordinates table.
func Sample(delim rune) *Table {
	if delim == 0 {
		delim = ';'
	}
	t := &Table{
		Header:    []string{"Latitude", "Longitude"},
		Format:    FormatDelimited,
		Delimiter: delim,
	}
	for _, r := range sampleCoordinates {
		t.Rows = append(t.Rows, append([]string(nil), r...))
	}
	return t
}

// WriteSample writes the sample coordinates table to path unless a file
// already exists there.
func WriteSample(path string, delim rune) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("table: %s already exists", path)
	}
	return Write(path, Sample(delim))
}
