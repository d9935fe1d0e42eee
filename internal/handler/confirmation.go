package handler

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/logger"

	"github.com/atmosgear/skate-league/internal/reconcile"
)

//go:embed templates/*.html
var templateFS embed.FS

var confirmationPage = template.Must(template.ParseFS(templateFS, "templates/confirmation.html"))

// cookieMarker keeps the reconciliation marker in a session cookie scoped
// to the confirmation page.
type cookieMarker struct {
	w http.ResponseWriter
	r *http.Request
}

func (m cookieMarker) Marked(paymentIntent string) bool {
	c, err := m.r.Cookie(reconcile.MarkerKey(paymentIntent))
	return err == nil && c.Value == "true"
}

func (m cookieMarker) Mark(paymentIntent string) {
	http.SetCookie(m.w, &http.Cookie{
		Name:     reconcile.MarkerKey(paymentIntent),
		Value:    "true",
		Path:     "/confirmation",
		HttpOnly: true,
		Secure:   m.r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

type confirmationView struct {
	State        reconcile.State `json:"state"`
	Name         string          `json:"-"`
	Email        string          `json:"-"`
	SupportEmail string          `json:"supportEmail,omitempty"`
	Message      string          `json:"message"`
}

var confirmationMessages = map[reconcile.State]string{
	reconcile.StateSuccess:           "Registration confirmed.",
	reconcile.StatePaymentError:      "The payment did not go through. No amount was charged.",
	reconcile.StateRegistrationError: "Payment received but the registration could not be completed. Do not pay again; contact support with your email address.",
}

// Confirmation handles GET /confirmation, the processor's return URL.
// It reconciles the payment into a registration and renders the outcome as
// HTML, or JSON when the client asks for it.
func (h *RegistrationHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	params := reconcile.ParamsFromQuery(r.URL.Query())
	out := h.flow.Run(r.Context(), params, cookieMarker{w: w, r: r})
	if out.Err != nil && out.State == reconcile.StatePaymentError {
		logger.Warningf("confirmation %q: %v", params.PaymentIntent, out.Err)
	}

	view := confirmationView{
		State:   out.State,
		Name:    params.Name,
		Email:   params.Email,
		Message: confirmationMessages[out.State],
	}
	if out.State == reconcile.StateRegistrationError {
		view.SupportEmail = h.opts.SupportEmail
	}

	w.Header().Set("Cache-Control", "no-store")
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, view)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := confirmationPage.Execute(w, view); err != nil {
		logger.Errorf("render confirmation: %v", err)
	}
}
