package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// OrganizerEvents handles GET /organizer/events
func (h *Handler) OrganizerEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.OrganizerEvents(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(events))
}

// ListEventRegistrations handles GET /organizer/events/{id}/registrations
func (h *Handler) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrations.ListForEvent(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(regs))
}

// UpdateRegistrationStatus handles PATCH /organizer/registrations/{id}
func (h *Handler) UpdateRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.registrations.UpdateStatus(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// EventStats handles GET /organizer/events/{id}/stats
func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registrations.EventStats(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
