package geocode

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

var tigerColumns = []string{"pprint_addy", "location", "stateabbrev", "zip", "county_fips"}

const tigerQueryPattern = `pprint_addy\(r\.addy\[1\]\)`

func mustPoint(t *testing.T, lat, lng float64) []byte {
	t.Helper()
	b, err := encodePoint(lat, lng)
	require.NoError(t, err)
	return b
}

func TestEncodePoint_RoundTrip(t *testing.T) {
	b, err := encodePoint(25.77, -80.19)
	require.NoError(t, err)

	g, err := ewkb.Unmarshal(b)
	require.NoError(t, err)

	p, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 4326, p.SRID())
	assert.InDelta(t, -80.19, p.X(), 1e-9)
	assert.InDelta(t, 25.77, p.Y(), 1e-9)
}

func TestTigerReverse_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(tigerQueryPattern).
		WithArgs(mustPoint(t, 25.77, -80.19)).
		WillReturnRows(
			pgxmock.NewRows(tigerColumns).
				AddRow(
					sql.NullString{String: "100 Main St, Miami, FL 33131", Valid: true},
					sql.NullString{String: "Miami", Valid: true},
					sql.NullString{String: "FL", Valid: true},
					sql.NullString{String: "33131", Valid: true},
					sql.NullString{String: "12086", Valid: true},
				),
		)

	tr := NewTigerReverser(mock)
	result, err := tr.ReverseGeocode(context.Background(), 25.77, -80.19)

	require.NoError(t, err)
	assert.Equal(t, "100 Main St, Miami, FL 33131", result.FormattedAddress)
	assert.Equal(t, "Miami", result.City)
	assert.Equal(t, "FL", result.State)
	assert.Equal(t, "33131", result.ZipCode)
	assert.Equal(t, "12086", result.CountyFIPS)
	assert.Equal(t, "tiger", result.Source)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerReverse_NoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(tigerQueryPattern).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(tigerColumns))

	tr := NewTigerReverser(mock)
	result, err := tr.ReverseGeocode(context.Background(), 0, 0)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, KindNoResult, KindOf(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerReverse_NullAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(tigerQueryPattern).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(
			pgxmock.NewRows(tigerColumns).
				AddRow(sql.NullString{}, sql.NullString{}, sql.NullString{}, sql.NullString{}, sql.NullString{}),
		)

	tr := NewTigerReverser(mock)
	_, err = tr.ReverseGeocode(context.Background(), 30.33, -97.75)

	require.Error(t, err)
	assert.Equal(t, KindNoResult, KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerReverse_AddressWithoutCounty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(tigerQueryPattern).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(
			pgxmock.NewRows(tigerColumns).
				AddRow(
					sql.NullString{String: "Somewhere Rd, TX", Valid: true},
					sql.NullString{}, sql.NullString{String: "TX", Valid: true}, sql.NullString{}, sql.NullString{},
				),
		)

	tr := NewTigerReverser(mock)
	result, err := tr.ReverseGeocode(context.Background(), 30.33, -97.75)

	require.NoError(t, err)
	assert.Equal(t, "Somewhere Rd, TX", result.FormattedAddress)
	assert.Equal(t, "TX", result.State)
	assert.Empty(t, result.CountyFIPS)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerReverseQuery_UsesFirstCandidate(t *testing.T) {
	for _, field := range []string{"pprint_addy(r.addy[1])", "(r.addy[1]).location", "(r.addy[1]).stateabbrev", "(r.addy[1]).zip"} {
		assert.Contains(t, tigerReverseQuery, field)
	}
	assert.Contains(t, tigerReverseQuery, "tiger.county")
	assert.NotContains(t, tigerReverseQuery, "rating")
	assert.NotContains(t, tigerReverseQuery, "(addy).")
}

func TestTigerReverse_DBError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(tigerQueryPattern).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	tr := NewTigerReverser(mock)
	_, err = tr.ReverseGeocode(context.Background(), 30.33, -97.75)

	require.Error(t, err)
	assert.Equal(t, KindProvider, KindOf(err))
	assert.Contains(t, err.Error(), "tiger reverse geocode")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerReverser_Name(t *testing.T) {
	assert.Equal(t, "tiger", NewTigerReverser(nil).Name())
}
