package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/revgeo/internal/config"
	"github.com/sells-group/revgeo/internal/db"
	"github.com/sells-group/revgeo/internal/pipeline"
	"github.com/sells-group/revgeo/internal/table"
	"github.com/sells-group/revgeo/pkg/geocode"
)

// initReverser builds the configured provider, wrapped in a memo when enabled.
// A missing credential is reported as *pipeline.CredentialError before any
// request is made. The returned func releases the provider's resources.
func initReverser(ctx context.Context, gc config.GeocodeConfig) (geocode.Reverser, func(), error) {
	rc := gc.Reverser()
	if err := rc.ValidateCredential(); err != nil {
		return nil, nil, &pipeline.CredentialError{Provider: providerName(rc.Provider), Err: err}
	}

	var (
		rev     geocode.Reverser
		closeFn = func() {}
	)
	if strings.EqualFold(rc.Provider, geocode.ProviderTiger) {
		pool, err := db.Connect(ctx, rc.DatabaseURL, nil)
		if err != nil {
			return nil, nil, eris.Wrap(err, "connect tiger database")
		}
		rev = geocode.NewTigerReverser(pool)
		closeFn = pool.Close
	} else {
		r, err := geocode.NewReverser(rc)
		if err != nil {
			return nil, nil, eris.Wrap(err, "init reverser")
		}
		rev = r
	}

	if gc.MemoSize > 0 {
		m, err := geocode.NewMemo(rev, gc.MemoSize)
		if err != nil {
			closeFn()
			return nil, nil, eris.Wrap(err, "init memo")
		}
		rev = m
	}

	zap.L().Debug("reverser ready",
		zap.String("provider", rev.Name()),
		zap.Int("memo_size", gc.MemoSize),
	)
	return rev, closeFn, nil
}

func providerName(p string) string {
	if p == "" {
		return geocode.ProviderGoogle
	}
	return strings.ToLower(p)
}

// pipelineConfig maps the table and geocode sections onto a pipeline.Config.
func pipelineConfig(c *config.Config) (pipeline.Config, error) {
	var delim rune
	if c.Table.Delimiter != "" {
		d, err := table.ParseDelimiter(c.Table.Delimiter)
		if err != nil {
			return pipeline.Config{}, eris.Wrap(err, "parse delimiter")
		}
		delim = d
	}

	return pipeline.Config{
		Delay:         c.Geocode.Delay,
		Sentinel:      c.Table.Sentinel,
		AddressColumn: c.Table.AddressCol,
		LatColumn:     c.Table.LatCol,
		LonColumn:     c.Table.LonCol,
		Table: table.Options{
			Delimiter: delim,
			Encoding:  c.Table.Encoding,
			Sheet:     c.Table.Sheet,
			SkipTrim:  c.Table.SkipCleaning,
		},
	}, nil
}
