package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes builds the HTTP router with the global middleware stack.
func (h *RegistrationHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", HealthCheck)
	r.Get("/confirmation", h.Confirmation)

	r.Route("/api", func(r chi.Router) {
		r.Post("/payment-intent", h.CreatePaymentIntent)
		r.Post("/create-payment-intent", h.CreatePaymentIntent)
		r.Post("/register-participant", h.RegisterParticipant)
		r.Get("/participant-counts", h.ParticipantCounts)
		r.Get("/get-participant-counts", h.ParticipantCounts)
		r.Get("/events", h.ListEvents)
		r.Post("/test-registration", h.TestRegistration)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/admin-participants", h.AdminParticipants)
			r.Post("/send-confirmation-emails", h.SendConfirmationEmails)
		})
	})

	return r
}
