// Package config loads service settings from the environment, optionally
// seeded from .env.local and .env files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Shivanand-hulikatti/eventhub/internal/database"
)

// Cache backends.
const (
	CacheMemory   = "memory"
	CachePostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	HTTP     HTTP
	Database database.Config
	Auth     Auth
	Geocoder Geocoder
	Weather  Weather
	Log      Log
	Cache    Cache
}

type HTTP struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"eventhub"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

type Geocoder struct {
	BaseURL   string        `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org/search"`
	UserAgent string        `env:"GEOCODER_USER_AGENT" envDefault:"eventhub/1.0"`
	Timeout   time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"5s"`
	TTL       time.Duration `env:"GEOCODER_CACHE_TTL" envDefault:"720h"`
}

type Weather struct {
	BaseURL string        `env:"WEATHER_URL" envDefault:"https://api.open-meteo.com/v1/forecast"`
	Timeout time.Duration `env:"WEATHER_TIMEOUT" envDefault:"5s"`
	TTL     time.Duration `env:"WEATHER_CACHE_TTL" envDefault:"1h"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type Cache struct {
	Backend string `env:"CACHE_BACKEND" envDefault:"postgres"`
}

// Load reads .env.local and .env when present, then parses the environment.
// Variables already set in the process win over file values.
func Load() (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, describeEnvError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// describeEnvError restates env's parse errors, which name Go struct fields,
// in terms of the environment variables that hold the bad values.
func describeEnvError(err error) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return fmt.Errorf("config: %w", err)
	}

	keys := make(map[string][]string)
	collectEnvKeys(reflect.TypeOf(Config{}), keys)

	errs := make([]error, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var pe env.ParseError
		if !errors.As(e, &pe) {
			errs = append(errs, fmt.Errorf("config: %w", e))
			continue
		}
		errs = append(errs, fmt.Errorf("config: %s: %w", envKeyFor(pe.Name, keys[pe.Name]), pe.Err))
	}
	return errors.Join(errs...)
}

// collectEnvKeys maps struct field names to the env keys tagged on them.
// Names repeat across sections, so one name can carry several keys.
func collectEnvKeys(t reflect.Type, into map[string][]string) {
	for i := range t.NumField() {
		f := t.Field(i)
		key, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		if key == "" && f.Type.Kind() == reflect.Struct {
			collectEnvKeys(f.Type, into)
			continue
		}
		if key != "" {
			into[f.Name] = append(into[f.Name], key)
		}
	}
}

// envKeyFor picks the candidate that is actually set; defaults always parse,
// so a failing field must have come from the environment.
func envKeyFor(field string, candidates []string) string {
	for _, key := range candidates {
		if _, ok := os.LookupEnv(key); ok {
			return key
		}
	}
	if len(candidates) > 0 {
		return strings.Join(candidates, "/")
	}
	return field
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	switch c.Cache.Backend {
	case CacheMemory, CachePostgres:
	default:
		return fmt.Errorf("config: CACHE_BACKEND must be %q or %q, got %q", CacheMemory, CachePostgres, c.Cache.Backend)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Geocoder.Timeout <= 0 || c.Weather.Timeout <= 0 {
		return errors.New("config: GEOCODER_TIMEOUT and WEATHER_TIMEOUT must be positive")
	}
	return nil
}

// SlogLevel converts Level to a slog.Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// Addr is the listen address for the HTTP server.
func (h HTTP) Addr() string {
	return ":" + h.Port
}
