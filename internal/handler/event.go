package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// ListCategories handles GET /categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.events.Categories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(cats))
}

// ListEvents handles GET /events
// Query parameters price, date, custom_date, category (or category_id),
// format (or is_online) and search select catalog facets; sort=upcoming
// lists future active events soonest first. tz names the zone calendar days
// are evaluated in.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	loc := time.UTC
	if tz := strings.TrimSpace(r.URL.Query().Get("tz")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			h.writeServiceError(w, r, model.NewValidationError("tz", "unknown time zone %q", tz))
			return
		}
		loc = l
	}

	events, err := h.events.Browse(r.Context(), catalog.ParseFilterState(r.URL.Query()), loc)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(events))
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.Create(r.Context(), auth.IdentityFromContext(r.Context()), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.Update(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// AvailableTickets handles GET /events/{id}/tickets
func (h *Handler) AvailableTickets(w http.ResponseWriter, r *http.Request) {
	avail, err := h.registrations.AvailableTickets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

// DeleteEvent handles DELETE /events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyEvents handles GET /me/events
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	mine, err := h.events.MyEvents(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	mine.CreatedEvents = orEmpty(mine.CreatedEvents)
	mine.RegisteredEvents = orEmpty(mine.RegisteredEvents)
	writeJSON(w, http.StatusOK, mine)
}
