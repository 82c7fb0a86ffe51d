package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// Register handles POST /events/{id}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.registrations.Register(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// ListMyRegistrations handles GET /registrations
func (h *Handler) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrations.ListMine(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(regs))
}

// GetRegistration handles GET /registrations/{id}
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrations.Get(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// GetRegistrationByReference handles GET /registrations/reference/{reference}
func (h *Handler) GetRegistrationByReference(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrations.GetByTicketReference(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "reference"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// CancelRegistration handles POST /registrations/{id}/cancel
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrations.Cancel(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ProcessPayment handles POST /registrations/{id}/payment
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrations.ProcessPayment(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}
