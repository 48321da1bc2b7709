// Package geocode provides reverse geocoding via Google (primary), OpenStreetMap
// Nominatim, and PostGIS TIGER data.
package geocode

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Provider names accepted by NewReverser.
const (
	ProviderGoogle    = "google"
	ProviderNominatim = "nominatim"
	ProviderTiger     = "tiger"
)

// ErrMissingCredential is returned when a provider is configured without the
// credential it needs to authenticate.
var ErrMissingCredential = eris.New("geocode: missing credential")

// Reverser converts a coordinate into a human-readable address.
type Reverser interface {
	// Name returns the provider name used in logs and results.
	Name() string

	// ReverseGeocode looks up the address closest to lat/lng. A coordinate
	// with no address returns a *LookupError of KindNoResult.
	ReverseGeocode(ctx context.Context, lat, lng float64) (*ReverseResult, error)
}

// ReverseResult holds the result of a reverse geocode operation.
type ReverseResult struct {
	FormattedAddress string `json:"formatted_address"`
	Street           string `json:"street,omitempty"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	ZipCode          string `json:"zip_code,omitempty"`
	Country          string `json:"country,omitempty"`
	CountyFIPS       string `json:"county_fips,omitempty"`
	Source           string `json:"source"`
}

// Config selects and configures a Reverser.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Language    string
	UserAgent   string
	DatabaseURL string
	Timeout     time.Duration
}

// Credential returns the value that authenticates cfg.Provider.
func (c Config) Credential() string {
	switch strings.ToLower(c.Provider) {
	case ProviderNominatim:
		return c.UserAgent
	case ProviderTiger:
		return c.DatabaseURL
	default:
		return c.APIKey
	}
}

// ValidateCredential returns ErrMissingCredential when the configured provider
// has no credential. It never contacts the provider.
func (c Config) ValidateCredential() error {
	if strings.TrimSpace(c.Credential()) == "" {
		return eris.Wrapf(ErrMissingCredential, "geocode: provider %q", c.providerName())
	}
	return nil
}

func (c Config) providerName() string {
	if c.Provider == "" {
		return ProviderGoogle
	}
	return strings.ToLower(c.Provider)
}

// NewReverser builds the HTTP-backed Reverser named by cfg.Provider. The
// tiger provider needs a database pool and is built with NewTigerReverser.
func NewReverser(cfg Config) (Reverser, error) {
	if err := cfg.ValidateCredential(); err != nil {
		return nil, err
	}

	switch cfg.providerName() {
	case ProviderGoogle:
		opts := []GoogleOption{WithGoogleLanguage(cfg.Language)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithGoogleBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithGoogleTimeout(cfg.Timeout))
		}
		return NewGoogleReverser(cfg.APIKey, opts...), nil
	case ProviderNominatim:
		opts := []NominatimOption{WithNominatimLanguage(cfg.Language)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithNominatimBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithNominatimTimeout(cfg.Timeout))
		}
		return NewNominatimReverser(cfg.UserAgent, opts...), nil
	case ProviderTiger:
		return nil, eris.New("geocode: tiger provider requires a database pool")
	default:
		return nil, eris.Errorf("geocode: unknown provider %q", cfg.Provider)
	}
}
