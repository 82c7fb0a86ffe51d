package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// writeServiceError maps a service error onto an HTTP status and JSON body.
// Unknown errors are logged and reported as a bare 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr   *model.ValidationError
		capErr *model.CapacityExceededError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{Error: vErr.Error(), Field: vErr.Field})
	case errors.As(err, &capErr):
		remaining := capErr.Remaining
		writeJSON(w, http.StatusConflict, model.ErrorResponse{Error: capErr.Error(), Remaining: &remaining})
	case errors.Is(err, model.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		writeError(w, http.StatusForbidden, model.ErrUnauthorized.Error())
	case errors.Is(err, model.ErrRegistrationClosed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrAlreadyRegistered),
		errors.Is(err, model.ErrAlreadyCancelled),
		errors.Is(err, model.ErrAlreadyPaid),
		errors.Is(err, model.ErrRegistrationCancelled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrEventNotFound),
		errors.Is(err, model.ErrRegistrationNotFound),
		errors.Is(err, model.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
