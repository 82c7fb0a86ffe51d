// Package geo resolves event addresses to coordinates and fetches
// single-day weather forecasts, caching successful answers from both
// external services.
package geo

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/cache"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

const (
	DefaultGeocodeTTL  = 30 * 24 * time.Hour
	DefaultForecastTTL = time.Hour
)

var (
	// ErrUnavailable means the forecast could not be produced. Callers show
	// an "unavailable" indicator instead of failing.
	ErrUnavailable = errors.New("forecast unavailable")
	// ErrOnlineEvent is returned when a forecast is asked for an event with
	// no physical location.
	ErrOnlineEvent = errors.New("online events have no location to forecast")
)

var errInvalidCoordinates = errors.New("coordinates out of range")

// Geocoder resolves free-text addresses.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (model.Coordinates, error)
}

// WeatherSource returns a raw daily forecast payload.
type WeatherSource interface {
	Daily(ctx context.Context, at model.Coordinates, date time.Time) (json.RawMessage, error)
}

// Forecast is a single-day forecast for a location.
type Forecast struct {
	Date     string            `json:"date"`
	Location model.Coordinates `json:"location"`
	Payload  json.RawMessage   `json:"payload"`
}

// DailyForecast is the parsed summary of a Forecast payload. Missing values
// are nil.
type DailyForecast struct {
	Date                     string   `json:"date"`
	TemperatureMax           *float64 `json:"temperature_max"`
	TemperatureMin           *float64 `json:"temperature_min"`
	PrecipitationProbability *float64 `json:"precipitation_probability"`
}

// Day extracts the first day of the payload's daily series.
func (f *Forecast) Day() (DailyForecast, bool) {
	var body struct {
		Daily struct {
			Time          []string   `json:"time"`
			TempMax       []*float64 `json:"temperature_2m_max"`
			TempMin       []*float64 `json:"temperature_2m_min"`
			Precipitation []*float64 `json:"precipitation_probability_max"`
		} `json:"daily"`
	}
	if err := json.Unmarshal(f.Payload, &body); err != nil || len(body.Daily.Time) == 0 {
		return DailyForecast{}, false
	}
	first := func(vs []*float64) *float64 {
		if len(vs) == 0 {
			return nil
		}
		return vs[0]
	}
	return DailyForecast{
		Date:                     body.Daily.Time[0],
		TemperatureMax:           first(body.Daily.TempMax),
		TemperatureMin:           first(body.Daily.TempMin),
		PrecipitationProbability: first(body.Daily.Precipitation),
	}, true
}

// UTCOffset is the offset of the timezone the weather source resolved for
// the forecast location. It is zero when the payload does not carry one.
func (f *Forecast) UTCOffset() time.Duration {
	var body struct {
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
	}
	if err := json.Unmarshal(f.Payload, &body); err != nil {
		return 0
	}
	return time.Duration(body.UTCOffsetSeconds) * time.Second
}

// Gateway fronts the geocoder and weather source with a TTL cache.
type Gateway struct {
	geocoder    Geocoder
	weather     WeatherSource
	cache       *cache.Cache
	log         *slog.Logger
	geocodeTTL  time.Duration
	forecastTTL time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithGeocodeTTL overrides how long successful geocodes are cached.
func WithGeocodeTTL(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.geocodeTTL = d
		}
	}
}

// WithForecastTTL overrides how long successful forecasts are cached.
func WithForecastTTL(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.forecastTTL = d
		}
	}
}

// NewGateway builds a Gateway.
func NewGateway(geocoder Geocoder, weather WeatherSource, c *cache.Cache, log *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		geocoder:    geocoder,
		weather:     weather,
		cache:       c,
		log:         log,
		geocodeTTL:  DefaultGeocodeTTL,
		forecastTTL: DefaultForecastTTL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GeocodeKey derives the cache key for an address. The exact text is
// hashed; no normalisation is applied.
func GeocodeKey(address string) string {
	sum := md5.Sum([]byte(address))
	return "geocode:" + hex.EncodeToString(sum[:])
}

// ForecastKey derives the cache key for a location and day.
func ForecastKey(at model.Coordinates, date time.Time) string {
	return fmt.Sprintf("weather:%s:%s:%s",
		strconv.FormatFloat(at.Latitude, 'f', -1, 64),
		strconv.FormatFloat(at.Longitude, 'f', -1, 64),
		date.Format(DateLayout),
	)
}

// Geocode resolves address. It reports false on any failure so callers can
// carry on without coordinates; only validated results are cached.
func (g *Gateway) Geocode(ctx context.Context, address string) (model.Coordinates, bool) {
	if strings.TrimSpace(address) == "" {
		return model.Coordinates{}, false
	}

	coords, err := cache.Remember(ctx, g.cache, GeocodeKey(address), g.geocodeTTL,
		func(ctx context.Context) (model.Coordinates, error) {
			c, err := g.geocoder.Lookup(ctx, address)
			if err != nil {
				return model.Coordinates{}, err
			}
			if !c.Valid() {
				return model.Coordinates{}, errInvalidCoordinates
			}
			return c, nil
		})
	if err != nil {
		g.log.WarnContext(ctx, "geocode unavailable",
			slog.String("address", address),
			slog.Any("error", err),
		)
		return model.Coordinates{}, false
	}
	return coords, true
}

// Forecast returns the forecast for at on date's calendar day.
func (g *Gateway) Forecast(ctx context.Context, at model.Coordinates, date time.Time) (*Forecast, error) {
	if !at.Valid() {
		return nil, model.NewValidationError("coordinates", "out of range")
	}
	if date.IsZero() {
		return nil, model.NewValidationError("date", "is required")
	}

	payload, err := cache.Remember(ctx, g.cache, ForecastKey(at, date), g.forecastTTL,
		func(ctx context.Context) (json.RawMessage, error) {
			return g.weather.Daily(ctx, at, date)
		})
	if err != nil {
		g.log.WarnContext(ctx, "forecast unavailable",
			slog.Float64("latitude", at.Latitude),
			slog.Float64("longitude", at.Longitude),
			slog.String("date", date.Format(DateLayout)),
			slog.Any("error", err),
		)
		return nil, ErrUnavailable
	}
	return &Forecast{Date: date.Format(DateLayout), Location: at, Payload: payload}, nil
}

// ForecastForEvent forecasts the event's start day at its location. The
// weather source answers in the venue's own timezone, so when the start
// falls on a different calendar day there than in UTC the venue-local day
// is fetched instead. Online events are rejected before any external call.
func (g *Gateway) ForecastForEvent(ctx context.Context, event *model.Event) (*Forecast, error) {
	if event.IsOnline {
		return nil, ErrOnlineEvent
	}
	at, ok := event.Coordinates()
	if !ok {
		at, ok = g.Geocode(ctx, event.Address())
	}
	if !ok {
		return nil, ErrUnavailable
	}

	start := event.StartDate.UTC()
	f, err := g.Forecast(ctx, at, start)
	if err != nil {
		return nil, err
	}
	if local := start.Add(f.UTCOffset()); local.Format(DateLayout) != f.Date {
		return g.Forecast(ctx, at, local)
	}
	return f, nil
}
