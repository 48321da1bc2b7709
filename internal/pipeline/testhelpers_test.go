package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/revgeo/internal/table"
	"github.com/sells-group/revgeo/pkg/geocode"
)

const sfAddress = "San Francisco, CA, USA"

// fakeReverser answers from fixed tables and records every call.
type fakeReverser struct {
	mu        sync.Mutex
	addresses map[string]string
	errs      map[string]error
	calls     []string
}

func newFakeReverser() *fakeReverser {
	return &fakeReverser{
		addresses: map[string]string{
			coordKey(37.7749, -122.4194): sfAddress,
			coordKey(90, 180):            "North Pole",
			coordKey(51.5074, -0.1278):   "London, UK",
		},
		errs: map[string]error{},
	}
}

func coordKey(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

func (f *fakeReverser) Name() string { return "fake" }

func (f *fakeReverser) ReverseGeocode(_ context.Context, lat, lng float64) (*geocode.ReverseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := coordKey(lat, lng)
	f.calls = append(f.calls, k)
	if err, ok := f.errs[k]; ok {
		return nil, err
	}
	if addr, ok := f.addresses[k]; ok {
		return &geocode.ReverseResult{FormattedAddress: addr, Source: "fake"}, nil
	}
	return nil, &geocode.LookupError{Kind: geocode.KindNoResult, Provider: "fake", Status: "ZERO_RESULTS"}
}

func (f *fakeReverser) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readTable(t *testing.T, path string) *table.Table {
	t.Helper()
	tbl, err := table.Read(path, table.Options{})
	require.NoError(t, err)
	return tbl
}

func record(index int, lat, lng float64) table.Record {
	return table.Record{Index: index, Latitude: lat, Longitude: lng}
}
