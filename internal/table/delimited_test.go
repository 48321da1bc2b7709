package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		header string
		want   rune
	}{
		{"Latitude,Longitude,Name", ','},
		{"Latitude;Longitude;Name", ';'},
		{"Latitude\tLongitude", '\t'},
		{"lat|lon", '|'},
		{"Latitude", ','},
		{"a,b;c;d", ';'},
		{"a,b;c", ','},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectDelimiter(tt.header), tt.header)
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := map[string]rune{
		"":          0,
		",":         ',',
		";":         ';',
		"semicolon": ';',
		"TAB":       '\t',
		`\t`:        '\t',
		"pipe":      '|',
	}
	for in, want := range tests {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{";;", `"`, "\n"} {
		_, err := ParseDelimiter(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadDelimited_Semicolon(t *testing.T) {
	tbl, err := ReadDelimited(strings.NewReader("Latitude;Longitude\n27.340833;35.708333\n26.255833;36.444444\n"), Options{})
	require.NoError(t, err)

	assert.Equal(t, ';', tbl.Delimiter)
	assert.Equal(t, FormatDelimited, tbl.Format)
	assert.Equal(t, []string{"Latitude", "Longitude"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"26.255833", "36.444444"}, tbl.Rows[1])
}

func TestReadDelimited_StripsBOM(t *testing.T) {
	tbl, err := ReadDelimited(strings.NewReader("\ufefflat,lon\n1,2\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "lat", tbl.Header[0])
}

func TestReadDelimited_Latin1(t *testing.T) {
	// "Ciudad" column holding "Bogotá" encoded as ISO-8859-1.
	raw := []byte("lat,lon,Ciudad\n4.71,-74.07,Bogot\xe1\n")

	tbl, err := ReadDelimited(bytes.NewReader(raw), Options{Encoding: "latin1"})
	require.NoError(t, err)
	assert.Equal(t, "Bogotá", tbl.Rows[0][2])
}

func TestReadDelimited_UnknownEncoding(t *testing.T) {
	_, err := ReadDelimited(strings.NewReader("a,b\n"), Options{Encoding: "klingon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestReadDelimited_ExplicitDelimiter(t *testing.T) {
	tbl, err := ReadDelimited(strings.NewReader("a,b|c\n1,2|3\n"), Options{Delimiter: '|'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b", "c"}, tbl.Header)
}

func TestReadDelimited_Empty(t *testing.T) {
	_, err := ReadDelimited(strings.NewReader(""), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestRead_TrimsHeadersOnly(t *testing.T) {
	path := writeFile(t, "in.csv", " Latitude , Longitude ,Name\n 27.34 , 35.70 ,\"  Well A  \"\n,,\n")

	tbl, err := Read(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Latitude", "Longitude", "Name"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{" 27.34 ", " 35.70 ", "  Well A  "}, tbl.Rows[0])
	assert.Equal(t, []string{"", "", ""}, tbl.Rows[1])
}

func TestRead_SkipTrimKeepsHeaderWhitespace(t *testing.T) {
	path := writeFile(t, "in.csv", " lat ,lon,Name\n1,2, padded \n")

	tbl, err := Read(path, Options{SkipTrim: true})
	require.NoError(t, err)
	assert.Equal(t, " lat ", tbl.Header[0])
	assert.Equal(t, " padded ", tbl.Rows[0][2])
}

func TestTrimColumns(t *testing.T) {
	tbl := &Table{
		Header: []string{"lat", "lon", "note"},
		Rows:   [][]string{{" 1 ", " 2 ", " keep "}, {" 3 "}},
	}

	tbl.TrimColumns(0, 1, 7)
	assert.Equal(t, []string{"1", "2", " keep "}, tbl.Rows[0])
	assert.Equal(t, []string{"3"}, tbl.Rows[1])
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWrite_RoundTripKeepsDelimiterAndQuoting(t *testing.T) {
	tbl := &Table{
		Header:    []string{"lat", "lon", "note"},
		Rows:      [][]string{{"1", "2", `says "hi"; ok`}},
		Delimiter: ';',
	}
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Write(path, tbl))

	got, err := Read(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, ';', got.Delimiter)
	assert.Equal(t, tbl.Header, got.Header)
	assert.Equal(t, tbl.Rows, got.Rows)
}

func TestWrite_TSVExtension(t *testing.T) {
	tbl := &Table{Header: []string{"lat", "lon"}, Rows: [][]string{{"1", "2"}}, Delimiter: ','}
	path := filepath.Join(t.TempDir(), "out.tsv")
	require.NoError(t, Write(path, tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "lat\tlon\n1\t2\n", string(data))
}

func TestWrite_OverwritesExisting(t *testing.T) {
	path := writeFile(t, "out.csv", "old,content,that,is,longer\n")

	tbl := &Table{Header: []string{"a"}, Rows: [][]string{{"1"}}, Delimiter: ','}
	require.NoError(t, Write(path, tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))
}

func TestWrite_UnwritablePath(t *testing.T) {
	tbl := &Table{Header: []string{"a"}, Delimiter: ','}
	err := Write(filepath.Join(t.TempDir(), "missing-dir", "out.csv"), tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table: create file")
}
