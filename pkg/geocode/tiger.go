package geocode

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/revgeo/internal/db"
)

// tigerReverseQuery takes the best candidate from reverse_geocode, whose
// addy column is a norm_addy[] ordered best first. norm_addy carries no
// county, so the county FIPS comes from the tiger.county polygon containing
// the point. TIGER geometries are NAD83 (SRID 4269).
const tigerReverseQuery = `
	WITH pt AS (
		SELECT ST_Transform(ST_GeomFromEWKB($1), 4269) AS geom
	)
	SELECT
		pprint_addy(r.addy[1]),
		(r.addy[1]).location,
		(r.addy[1]).stateabbrev,
		(r.addy[1]).zip,
		c.statefp || c.countyfp
	FROM pt
	CROSS JOIN LATERAL reverse_geocode(pt.geom, true) AS r
	LEFT JOIN tiger.county AS c ON ST_Contains(c.the_geom, pt.geom)
	LIMIT 1`

// TigerReverser reverse geocodes against a PostGIS database loaded with
// TIGER/Line data.
type TigerReverser struct {
	pool db.Pool
}

// NewTigerReverser creates a TigerReverser.
func NewTigerReverser(pool db.Pool) *TigerReverser {
	return &TigerReverser{pool: pool}
}

// Name implements Reverser.
func (t *TigerReverser) Name() string { return ProviderTiger }

// ReverseGeocode implements Reverser.
func (t *TigerReverser) ReverseGeocode(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	point, err := encodePoint(lat, lng)
	if err != nil {
		return nil, &LookupError{Kind: KindInvalidRequest, Provider: ProviderTiger, Err: err}
	}

	var fullAddr, city, state, zip, countyFIPS sql.NullString

	err = t.pool.QueryRow(ctx, tigerReverseQuery, point).
		Scan(&fullAddr, &city, &state, &zip, &countyFIPS)
	if err != nil {
		zap.L().Debug("tiger reverse: no result",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		kind := KindNoResult
		if !errors.Is(err, pgx.ErrNoRows) {
			kind = Classify(err)
		}
		return nil, &LookupError{Kind: kind, Provider: ProviderTiger, Err: eris.Wrap(err, "geocode: tiger reverse geocode")}
	}

	if !fullAddr.Valid || fullAddr.String == "" {
		return nil, &LookupError{Kind: KindNoResult, Provider: ProviderTiger}
	}

	return &ReverseResult{
		FormattedAddress: fullAddr.String,
		City:             city.String,
		State:            state.String,
		ZipCode:          zip.String,
		Country:          "US",
		CountyFIPS:       countyFIPS.String,
		Source:           ProviderTiger,
	}, nil
}

// encodePoint returns the EWKB encoding of lat/lng with SRID 4326.
func encodePoint(lat, lng float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(4326)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: encode point")
	}
	return data, nil
}
