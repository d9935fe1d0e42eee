// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/logger"

	"github.com/atmosgear/skate-league/internal/model"
	"github.com/atmosgear/skate-league/internal/reconcile"
	"github.com/atmosgear/skate-league/internal/repository"
	"github.com/atmosgear/skate-league/internal/service"
)

// Options carries the settings the HTTP layer needs beyond the service.
type Options struct {
	AdminPassword  string
	TestSecret     string
	SupportEmail   string
	AdminRateLimit float64 // requests per second per client
	AdminRateBurst int
}

// RegistrationHandler holds all HTTP handlers for the registration API.
type RegistrationHandler struct {
	svc     *service.RegistrationService
	flow    *reconcile.Flow
	opts    Options
	limiter *ClientLimiter
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc *service.RegistrationService, opts Options) *RegistrationHandler {
	if opts.AdminRateLimit <= 0 {
		opts.AdminRateLimit = 1
	}
	if opts.AdminRateBurst <= 0 {
		opts.AdminRateBurst = 5
	}
	return &RegistrationHandler{
		svc:     svc,
		flow:    reconcile.NewFlow(svc),
		opts:    opts,
		limiter: NewClientLimiter(opts.AdminRateLimit, opts.AdminRateBurst),
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

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
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError maps service and store errors to HTTP statuses.
// Unexpected errors are logged and answered without detail.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPaymentNotConfirmed):
		writeError(w, http.StatusBadRequest, "payment not confirmed")
	case errors.Is(err, repository.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "participant already registered for this payment")
	case errors.Is(err, service.ErrEmailNotConfigured):
		writeError(w, http.StatusInternalServerError, "email provider not configured")
	default:
		logger.Errorf("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreatePaymentIntent handles POST /api/payment-intent
// An empty body charges the configured event fee.
func (h *RegistrationHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePaymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	secret, err := h.svc.CreatePaymentIntent(r.Context(), req.Amount)
	if err != nil {
		writeServiceError(w, "create payment intent", err)
		return
	}
	writeJSON(w, http.StatusOK, model.CreatePaymentIntentResponse{ClientSecret: secret})
}

// RegisterParticipant handles POST /api/register-participant
// 409 means the payment intent is already registered, which callers treat
// as success.
func (h *RegistrationHandler) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.RegisterParticipant(r.Context(), req)
	if err != nil {
		writeServiceError(w, "register participant", err)
		return
	}

	writeJSON(w, http.StatusOK, model.RegisterResponse{
		Success:     true,
		Message:     "Participant registered",
		Participant: p.Summary(),
	})
}

// AdminParticipants handles GET /api/admin-participants
func (h *RegistrationHandler) AdminParticipants(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.AdminParticipants(r.Context())
	if err != nil {
		writeServiceError(w, "admin participants", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ParticipantCounts handles GET /api/participant-counts?eventIds=a,b
func (h *RegistrationHandler) ParticipantCounts(w http.ResponseWriter, r *http.Request) {
	raw, ok := r.URL.Query()["eventIds"]
	if !ok {
		writeError(w, http.StatusBadRequest, "eventIds query parameter is required")
		return
	}

	var ids []string
	for _, v := range raw {
		ids = append(ids, strings.Split(v, ",")...)
	}

	counts, err := h.svc.ParticipantCounts(r.Context(), ids)
	if err != nil {
		writeServiceError(w, "participant counts", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// SendConfirmationEmails handles POST /api/send-confirmation-emails
func (h *RegistrationHandler) SendConfirmationEmails(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.BackfillConfirmationEmails(r.Context())
	if err != nil {
		writeServiceError(w, "send confirmation emails", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TestRegistration handles POST /api/test-registration
// The secret comes from the X-Test-Secret header or the testSecret field.
func (h *RegistrationHandler) TestRegistration(w http.ResponseWriter, r *http.Request) {
	headerOK := secretMatches(r.Header.Get("X-Test-Secret"), h.opts.TestSecret)

	var req model.TestRegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if !headerOK {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !headerOK && !secretMatches(req.TestSecret, h.opts.TestSecret) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	res, err := h.svc.TestRegistration(r.Context(), req)
	if err != nil {
		writeServiceError(w, "test registration", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListEvents handles GET /api/events
// Returns the catalog with live registration counts.
func (h *RegistrationHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.EventAvailability(r.Context())
	if err != nil {
		writeServiceError(w, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
