package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventhub/internal/geo"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// forecastResponse always reports availability so clients can render an
// "unavailable" indicator instead of an error.
type forecastResponse struct {
	Available bool               `json:"available"`
	Date      string             `json:"date,omitempty"`
	Location  *model.Coordinates `json:"location,omitempty"`
	Summary   *geo.DailyForecast `json:"summary,omitempty"`
	Forecast  json.RawMessage    `json:"forecast,omitempty"`
}

func newForecastResponse(f *geo.Forecast) forecastResponse {
	resp := forecastResponse{Available: true, Date: f.Date, Location: &f.Location, Forecast: f.Payload}
	if day, ok := f.Day(); ok {
		resp.Summary = &day
	}
	return resp
}

// EventForecast handles GET /events/{id}/forecast
func (h *Handler) EventForecast(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	f, err := h.weather.ForecastForEvent(r.Context(), event)
	switch {
	case errors.Is(err, geo.ErrOnlineEvent):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, geo.ErrUnavailable):
		writeJSON(w, http.StatusOK, forecastResponse{Available: false})
	case err != nil:
		h.writeServiceError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, newForecastResponse(f))
	}
}

// Weather handles GET /weather?address=&date=
// The date is YYYY-MM-DD and defaults to today (UTC).
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		h.writeServiceError(w, r, model.NewValidationError("address", "is required"))
		return
	}
	date := h.clock.Now()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		d, err := time.Parse(geo.DateLayout, raw)
		if err != nil {
			h.writeServiceError(w, r, model.NewValidationError("date", "must be formatted as YYYY-MM-DD"))
			return
		}
		date = d
	}

	at, ok := h.weather.Geocode(r.Context(), address)
	if !ok {
		writeError(w, http.StatusBadRequest, "could not locate address")
		return
	}

	f, err := h.weather.Forecast(r.Context(), at, date)
	switch {
	case errors.Is(err, geo.ErrUnavailable):
		writeJSON(w, http.StatusOK, forecastResponse{Available: false, Location: &at})
	case err != nil:
		h.writeServiceError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, newForecastResponse(f))
	}
}
