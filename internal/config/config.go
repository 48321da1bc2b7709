// Package config loads revgeo configuration from config.yaml, REVGEO_*
// environment variables, and defaults, and initialises the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/revgeo/pkg/geocode"
)

// Config holds the full application configuration.
type Config struct {
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Table   TableConfig   `yaml:"table" mapstructure:"table"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig selects and paces the reverse geocoding provider.
type GeocodeConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Language    string `yaml:"language" mapstructure:"language"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MemoSize    int    `yaml:"memo_size" mapstructure:"memo_size"`

	// Delay is the fixed pause between provider requests, e.g. "100ms".
	Delay time.Duration `yaml:"delay" mapstructure:"delay"`
}

// Reverser converts the section into a geocode.Config.
func (g GeocodeConfig) Reverser() geocode.Config {
	return geocode.Config{
		Provider:    g.Provider,
		APIKey:      g.APIKey,
		BaseURL:     g.BaseURL,
		Language:    g.Language,
		UserAgent:   g.UserAgent,
		DatabaseURL: g.DatabaseURL,
		Timeout:     time.Duration(g.TimeoutSecs) * time.Second,
	}
}

// TableConfig configures how input tables are read and output tables written.
type TableConfig struct {
	Delimiter    string `yaml:"delimiter" mapstructure:"delimiter"`
	Encoding     string `yaml:"encoding" mapstructure:"encoding"`
	Sheet        string `yaml:"sheet" mapstructure:"sheet"`
	LatCol       string `yaml:"lat_col" mapstructure:"lat_col"`
	LonCol       string `yaml:"lon_col" mapstructure:"lon_col"`
	AddressCol   string `yaml:"address_col" mapstructure:"address_col"`
	Sentinel     string `yaml:"sentinel" mapstructure:"sentinel"`
	SkipCleaning bool   `yaml:"skip_cleaning" mapstructure:"skip_cleaning"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         int `yaml:"port" mapstructure:"port"`
	MaxBodyBytes int `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REVGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so AutomaticEnv can populate it.
	v.SetDefault("geocode.provider", geocode.ProviderGoogle)
	v.SetDefault("geocode.api_key", "")
	v.SetDefault("geocode.base_url", "")
	v.SetDefault("geocode.language", "")
	v.SetDefault("geocode.user_agent", "")
	v.SetDefault("geocode.database_url", "")
	v.SetDefault("geocode.delay", 100*time.Millisecond)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.memo_size", 4096)
	v.SetDefault("table.delimiter", "")
	v.SetDefault("table.encoding", "")
	v.SetDefault("table.sheet", "")
	v.SetDefault("table.lat_col", "")
	v.SetDefault("table.lon_col", "")
	v.SetDefault("table.address_col", "address")
	v.SetDefault("table.sentinel", "")
	v.SetDefault("table.skip_cleaning", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Credentials are
// not checked here; the pipeline reports them as credential errors.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "reverse", "lookup":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxBodyBytes <= 0 {
			errs = append(errs, "server.max_body_bytes must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch strings.ToLower(c.Geocode.Provider) {
	case geocode.ProviderGoogle, geocode.ProviderNominatim, geocode.ProviderTiger:
	default:
		errs = append(errs, "geocode.provider must be one of google, nominatim, tiger")
	}
	if c.Geocode.Delay < 0 {
		errs = append(errs, "geocode.delay must be >= 0")
	}
	if c.Geocode.TimeoutSecs <= 0 {
		errs = append(errs, "geocode.timeout_secs must be > 0")
	}
	if c.Geocode.MemoSize < 0 {
		errs = append(errs, "geocode.memo_size must be >= 0")
	}
	if strings.TrimSpace(c.Table.AddressCol) == "" {
		errs = append(errs, "table.address_col is required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
