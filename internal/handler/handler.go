// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhub/internal/clock"
	"github.com/Shivanand-hulikatti/eventhub/internal/geo"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// EventService is the event catalog as seen by the HTTP layer.
type EventService interface {
	Create(ctx context.Context, id auth.Identity, in model.EventInput) (*model.Event, error)
	Update(ctx context.Context, id auth.Identity, eventID string, in model.EventInput) (*model.Event, error)
	Delete(ctx context.Context, id auth.Identity, eventID string) error
	Get(ctx context.Context, eventID string) (*model.Event, error)
	MyEvents(ctx context.Context, id auth.Identity) (*model.MyEvents, error)
	OrganizerEvents(ctx context.Context, id auth.Identity) ([]model.OrganizerEvent, error)
	Browse(ctx context.Context, st catalog.FilterState, loc *time.Location) ([]model.Event, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

// RegistrationService is the registration ledger as seen by the HTTP layer.
type RegistrationService interface {
	Register(ctx context.Context, id auth.Identity, eventID string, req model.RegisterRequest) (*model.Registration, error)
	Cancel(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error)
	ProcessPayment(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error)
	UpdateStatus(ctx context.Context, id auth.Identity, registrationID string, status model.RegistrationStatus) (*model.Registration, error)
	Get(ctx context.Context, id auth.Identity, registrationID string) (*model.Registration, error)
	GetByTicketReference(ctx context.Context, id auth.Identity, ref string) (*model.Registration, error)
	ListMine(ctx context.Context, id auth.Identity) ([]model.Registration, error)
	ListForEvent(ctx context.Context, id auth.Identity, eventID string) ([]model.Registration, error)
	EventStats(ctx context.Context, id auth.Identity, eventID string) (*model.EventStats, error)
	AvailableTickets(ctx context.Context, eventID string) (*model.TicketAvailability, error)
}

// WeatherService resolves addresses and forecasts.
type WeatherService interface {
	Geocode(ctx context.Context, address string) (model.Coordinates, bool)
	Forecast(ctx context.Context, at model.Coordinates, date time.Time) (*geo.Forecast, error)
	ForecastForEvent(ctx context.Context, event *model.Event) (*geo.Forecast, error)
}

// Handler holds all HTTP handlers for the event booking API.
type Handler struct {
	events        EventService
	registrations RegistrationService
	weather       WeatherService
	clock         clock.Clock
	log           *slog.Logger
}

// New constructs a Handler.
func New(events EventService, registrations RegistrationService, weather WeatherService, clk clock.Clock, log *slog.Logger) *Handler {
	return &Handler{
		events:        events,
		registrations: registrations,
		weather:       weather,
		clock:         clk,
		log:           log,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// orEmpty returns an empty slice rather than null for better client
// compatibility.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
