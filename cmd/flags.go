package main

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/sells-group/revgeo/internal/config"
)

// Provider flags shared by every command. They override config values only
// when set on the command line.
var (
	flagAPIKey      string
	flagProvider    string
	flagDelay       time.Duration
	flagMemoSize    int
	flagDatabaseURL string
	flagUserAgent   string
)

func registerProviderFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagAPIKey, "api-key", "", "geocoding API key (default from REVGEO_GEOCODE_API_KEY)")
	fs.StringVar(&flagProvider, "provider", "", "geocoding provider: google, nominatim, tiger (default from config)")
	fs.DurationVar(&flagDelay, "delay", 0, "fixed pause between provider requests, e.g. 200ms (default from config)")
	fs.IntVar(&flagMemoSize, "memo-size", 0, "entries in the per-run coordinate memo, 0 disables (default from config)")
	fs.StringVar(&flagDatabaseURL, "database-url", "", "PostGIS TIGER database URL for the tiger provider")
	fs.StringVar(&flagUserAgent, "user-agent", "", "User-Agent with contact address for the nominatim provider")
}

func applyProviderFlags(fs *pflag.FlagSet, c *config.Config) {
	if fs.Changed("api-key") {
		c.Geocode.APIKey = flagAPIKey
	}
	if fs.Changed("provider") {
		c.Geocode.Provider = flagProvider
	}
	if fs.Changed("delay") {
		c.Geocode.Delay = flagDelay
	}
	if fs.Changed("memo-size") {
		c.Geocode.MemoSize = flagMemoSize
	}
	if fs.Changed("database-url") {
		c.Geocode.DatabaseURL = flagDatabaseURL
	}
	if fs.Changed("user-agent") {
		c.Geocode.UserAgent = flagUserAgent
	}
}
