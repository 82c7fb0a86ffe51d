package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
)

// NewRouter builds the chi router with the global middleware stack and
// every API route.
func NewRouter(h *Handler, tokens *auth.TokenManager, corsOrigins []string, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS(corsOrigins))
	r.Use(auth.Authenticate(tokens))

	r.Get("/health", HealthCheck)
	r.Get("/categories", h.ListCategories)
	r.Get("/weather", h.Weather)
	r.With(auth.RequireAuth).Get("/me/events", h.MyEvents)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.With(auth.RequireRole(auth.RoleOrganizer, auth.RoleAdmin)).Post("/", h.CreateEvent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Get("/tickets", h.AvailableTickets)
			r.Get("/forecast", h.EventForecast)
			r.With(auth.RequireAuth).Put("/", h.UpdateEvent)
			r.With(auth.RequireAuth).Delete("/", h.DeleteEvent)
			r.With(auth.RequireAuth).Post("/register", h.Register)
		})
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.ListMyRegistrations)
		r.Get("/reference/{reference}", h.GetRegistrationByReference)
		r.Get("/{id}", h.GetRegistration)
		r.Post("/{id}/cancel", h.CancelRegistration)
		r.Post("/{id}/payment", h.ProcessPayment)
	})

	r.Route("/organizer", func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleOrganizer, auth.RoleAdmin))
		r.Get("/events", h.OrganizerEvents)
		r.Get("/events/{id}/registrations", h.ListEventRegistrations)
		r.Get("/events/{id}/stats", h.EventStats)
		r.Patch("/registrations/{id}", h.UpdateRegistrationStatus)
	})

	return r
}
