package pipeline

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/revgeo/internal/table"
)

// Stats summarises a run.
type Stats struct {
	Total    int           `json:"total"`
	Geocoded int           `json:"geocoded"`
	Failed   int           `json:"failed"`  // provider failures, including no result
	Invalid  int           `json:"invalid"` // out-of-range coordinates
	Duration time.Duration `json:"duration"`
}

// memoizer is implemented by reversers that answer repeated coordinates
// locally, such as *geocode.Memo.
type memoizer interface {
	Contains(lat, lng float64) bool
}

// Run returns a lazy sequence of results, one per record and in input order.
// Requests are issued one at a time, paced by the pipeline limiter. Rows that
// are invalid or already memoised do not wait on the limiter. The
// sequence stops with a non-nil error when the context is cancelled or the
// provider rejects the credential (*CredentialError). It can be consumed once.
func (p *Pipeline) Run(ctx context.Context, records []table.Record) iter.Seq2[Result, error] {
	var o once
	return func(yield func(Result, error) bool) {
		if !o.take() {
			yield(Result{}, eris.New("pipeline: results already consumed"))
			return
		}

		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				yield(Result{Record: rec}, eris.Wrap(err, "pipeline: run cancelled"))
				return
			}
			if p.paced(rec) {
				if err := p.limiter.Wait(ctx); err != nil {
					yield(Result{Record: rec}, eris.Wrap(err, "pipeline: wait for rate limiter"))
					return
				}
			}

			res := p.ReverseGeocode(ctx, rec)
			if err := ctx.Err(); err != nil {
				yield(res, eris.Wrap(err, "pipeline: run cancelled"))
				return
			}
			if err := p.credentialRejected(res); err != nil {
				yield(res, err)
				return
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

// paced reports whether looking up rec reaches the provider.
func (p *Pipeline) paced(rec table.Record) bool {
	if !rec.Valid() {
		return false
	}
	if m, ok := p.reverser.(memoizer); ok && m.Contains(rec.Latitude, rec.Longitude) {
		return false
	}
	return true
}

// collect drains Run, tallying stats and logging failed rows.
func (p *Pipeline) collect(ctx context.Context, records []table.Record) ([]Result, Stats, error) {
	stats := Stats{Total: len(records)}
	results := make([]Result, 0, len(records))

	for res, err := range p.Run(ctx, records) {
		if err != nil {
			return results, stats, err
		}
		results = append(results, res)

		var ife *InputFormatError
		switch {
		case res.OK():
			stats.Geocoded++
		case errors.As(res.Err, &ife):
			stats.Invalid++
			logFailure(res)
		default:
			stats.Failed++
			logFailure(res)
		}

		if p.progress != nil {
			p.progress(len(results), len(records))
		}
	}
	return results, stats, nil
}

// Enrich geocodes every row of tbl and returns a copy with the address column
// filled. tbl is not modified.
func (p *Pipeline) Enrich(ctx context.Context, tbl *table.Table) (*table.Table, Stats, error) {
	start := time.Now()

	tbl = tbl.Clone()
	records, err := p.Records(tbl)
	if err != nil {
		return nil, Stats{}, err
	}

	results, stats, err := p.collect(ctx, records)
	stats.Duration = time.Since(start)
	if err != nil {
		return nil, stats, err
	}

	out, err := p.Apply(tbl, results)
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// Process loads the table at in, geocodes every row, and writes the enriched
// table to out. Nothing is written to out when a fatal error occurs.
func (p *Pipeline) Process(ctx context.Context, in, out string) (Stats, error) {
	start := time.Now()
	log := zap.L().With(zap.String("input", in), zap.String("output", out), zap.String("provider", p.reverser.Name()))

	tbl, records, err := p.Load(in)
	if err != nil {
		return Stats{}, err
	}
	log.Info("pipeline: loaded input", zap.Int("rows", len(records)))

	if p.cfg.CleanedPath != "" {
		if err := table.Write(p.cfg.CleanedPath, tbl); err != nil {
			return Stats{}, &OutputWriteError{Path: p.cfg.CleanedPath, Err: err}
		}
		log.Info("pipeline: wrote cleaned input", zap.String("path", p.cfg.CleanedPath))
	}

	results, stats, err := p.collect(ctx, records)
	if err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}

	if err := p.Write(tbl, results, out); err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}

	stats.Duration = time.Since(start)
	log.Info("pipeline: complete",
		zap.Int("total", stats.Total),
		zap.Int("geocoded", stats.Geocoded),
		zap.Int("failed", stats.Failed),
		zap.Int("invalid", stats.Invalid),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}
