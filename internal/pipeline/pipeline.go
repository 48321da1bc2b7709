// Package pipeline enriches a coordinate table with one reverse geocoded
// address per row.
package pipeline

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/revgeo/internal/table"
	"github.com/sells-group/revgeo/pkg/geocode"
)

// DefaultAddressColumn is the header of the column the pipeline fills.
const DefaultAddressColumn = "address"

// Config controls a pipeline run. It is passed explicitly; the pipeline never
// reads global configuration.
type Config struct {
	Delay         time.Duration // fixed pause between provider requests
	Sentinel      string        // address written for rows without a result
	AddressColumn string
	LatColumn     string // header name or 0-based index; "" tries aliases
	LonColumn     string
	Table         table.Options
	CleanedPath   string // when set, the cleaned input is also written here
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress registers fn to be called after every processed row.
func WithProgress(fn func(done, total int)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithLimiter replaces the pacing limiter built from Config.Delay. Pipelines
// sharing a provider can share a limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Pipeline) { p.limiter = l }
}

// Pipeline reverse geocodes table rows sequentially against one provider.
type Pipeline struct {
	reverser geocode.Reverser
	cfg      Config
	limiter  *rate.Limiter
	progress func(done, total int)
}

// New creates a Pipeline that looks up addresses with r.
func New(r geocode.Reverser, cfg Config, opts ...Option) *Pipeline {
	if cfg.AddressColumn == "" {
		cfg.AddressColumn = DefaultAddressColumn
	}
	p := &Pipeline{
		reverser: r,
		cfg:      cfg,
		limiter:  NewLimiter(cfg.Delay),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// NewLimiter returns a limiter that admits one request per delay. A
// non-positive delay disables pacing.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Result is the outcome of geocoding one record.
type Result struct {
	Record  table.Record
	Address string // formatted address, or the sentinel on failure
	Geocode *geocode.ReverseResult
	Err     error // *InputFormatError or *ProviderLookupError
}

// OK reports whether the row received an address from the provider.
func (r Result) OK() bool { return r.Err == nil }

// ReverseGeocode looks up the address for one record. It never returns an
// error: failures are carried in Result.Err and the address is the sentinel.
// Out-of-range coordinates are not sent to the provider.
func (p *Pipeline) ReverseGeocode(ctx context.Context, rec table.Record) Result {
	res := Result{Record: rec, Address: p.cfg.Sentinel}

	if !rec.Valid() {
		res.Err = &InputFormatError{
			Row:    rec.Line(),
			Reason: rangeReason(rec.Latitude, rec.Longitude),
		}
		return res
	}

	gr, err := p.reverser.ReverseGeocode(ctx, rec.Latitude, rec.Longitude)
	if err != nil {
		res.Err = &ProviderLookupError{Row: rec.Line(), Kind: geocode.KindOf(err), Err: err}
		return res
	}
	if gr == nil || gr.FormattedAddress == "" {
		res.Err = &ProviderLookupError{
			Row:  rec.Line(),
			Kind: geocode.KindNoResult,
			Err:  &geocode.LookupError{Kind: geocode.KindNoResult, Provider: p.reverser.Name()},
		}
		return res
	}

	res.Address = gr.FormattedAddress
	res.Geocode = gr
	return res
}

func rangeReason(lat, lng float64) string {
	if math.Abs(lat) > 90 {
		return "latitude out of range [-90, 90]"
	}
	return "longitude out of range [-180, 180]"
}

// credentialRejected returns a *CredentialError when res failed because the
// provider refused the credential.
func (p *Pipeline) credentialRejected(res Result) error {
	var ple *ProviderLookupError
	if errors.As(res.Err, &ple) && ple.Kind == geocode.KindCredential {
		return &CredentialError{Provider: p.reverser.Name(), Err: ple.Err}
	}
	return nil
}

// logFailure emits one warning per failed row.
func logFailure(res Result) {
	if res.Err == nil {
		return
	}
	var kind string
	var ple *ProviderLookupError
	if errors.As(res.Err, &ple) {
		kind = string(ple.Kind)
	} else {
		kind = "invalid_coordinate"
	}
	zap.L().Warn("pipeline: row failed",
		zap.Int("row", res.Record.Line()),
		zap.Float64("lat", res.Record.Latitude),
		zap.Float64("lng", res.Record.Longitude),
		zap.String("kind", kind),
		zap.Error(res.Err),
	)
}

// once guards an iterator against being consumed twice.
type once struct{ used atomic.Bool }

func (o *once) take() bool { return o.used.CompareAndSwap(false, true) }
