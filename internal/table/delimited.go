package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// candidateDelimiters are tried in order; ties go to the earlier entry.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

func readDelimitedFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "table: open file")
	}
	defer f.Close() //nolint:errcheck

	return ReadDelimited(f, opts)
}

// ReadDelimited parses delimited text from r. The input is decoded from
// opts.Encoding (UTF-8 by default, with any byte order mark removed) and the
// delimiter is detected from the header line unless opts.Delimiter is set.
// Header names are trimmed unless opts.SkipTrim is set; data rows are kept
// as parsed.
func ReadDelimited(r io.Reader, opts Options) (*Table, error) {
	decoded, err := decode(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, eris.Wrap(err, "table: read input")
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(firstLine(data))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow ragged rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "table: parse delimited text")
	}

	t, err := split(records)
	if err != nil {
		return nil, err
	}
	t.Format = FormatDelimited
	t.Delimiter = delim
	if !opts.SkipTrim {
		t.clean()
	}
	return t, nil
}

// WriteDelimited writes t to w as delimited text using delim.
func WriteDelimited(w io.Writer, t *Table, delim rune) error {
	if delim == 0 {
		delim = ','
	}

	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "table: write header")
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "table: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "table: flush")
}

func writeDelimitedFile(path string, t *Table, delim rune) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "table: create file")
	}

	bw := bufio.NewWriter(f)
	if err := WriteDelimited(bw, t, delim); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "table: flush file")
	}
	return eris.Wrap(f.Close(), "table: close file")
}

// DetectDelimiter picks the most frequent candidate delimiter in the header
// line, defaulting to a comma.
func DetectDelimiter(header string) rune {
	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// ParseDelimiter converts a user-supplied delimiter flag into a rune. It
// accepts a single character or the names "comma", "semicolon", "tab", "pipe"
// and the escape "\t". An empty value returns 0, meaning detect.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "tab", `\t`:
		return '\t', nil
	case "pipe":
		return '|', nil
	}

	runes := []rune(s)
	if len(runes) != 1 || runes[0] == '"' || runes[0] == '\r' || runes[0] == '\n' {
		return 0, eris.Errorf("table: invalid delimiter %q", s)
	}
	return runes[0], nil
}

func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM.NewDecoder().Reader(r), nil
	}

	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, eris.Wrapf(err, "table: unsupported encoding %q", encoding)
	}
	return enc.NewDecoder().Reader(r), nil
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return strings.TrimRight(string(data), "\r")
}
