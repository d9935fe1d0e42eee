// Package reconcile turns the processor's redirect back to the confirmation
// page into exactly one registration for the paid intent.
package reconcile

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/logger"

	"github.com/atmosgear/skate-league/internal/model"
	"github.com/atmosgear/skate-league/internal/payment"
	"github.com/atmosgear/skate-league/internal/repository"
	"github.com/atmosgear/skate-league/internal/service"
)

// State is where the confirmation page ends up.
type State string

const (
	// StateLoading is the page's initial state while reconciliation is in
	// progress. Run never returns it.
	StateLoading           State = "loading"
	StateSuccess           State = "success"
	StatePaymentError      State = "payment_error"
	StateRegistrationError State = "registration_error"
)

// Params is the return URL contract: the processor adds payment_intent and
// redirect_status, the registration page echoes the form fields.
type Params struct {
	PaymentIntent  string
	RedirectStatus string
	Name           string
	Email          string
	Phone          string
	EventID        string
	Jersey         string
	JerseySize     string
}

// ParamsFromQuery reads Params from the confirmation URL query.
func ParamsFromQuery(q url.Values) Params {
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }
	return Params{
		PaymentIntent:  get("payment_intent"),
		RedirectStatus: get("redirect_status"),
		Name:           get("name"),
		Email:          get("email"),
		Phone:          get("phone"),
		EventID:        get("event_id"),
		Jersey:         get("jersey"),
		JerseySize:     get("jersey_size"),
	}
}

func (p Params) request() model.RegisterRequest {
	return model.RegisterRequest{
		PaymentIntent: p.PaymentIntent,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		EventID:       p.EventID,
		Jersey:        p.Jersey,
		JerseySize:    p.JerseySize,
	}
}

// MarkerKey names the "already processed" flag for an intent.
func MarkerKey(paymentIntent string) string {
	return "registration_" + paymentIntent
}

// Marker remembers, for one browser session, which intents were already
// reconciled.
type Marker interface {
	Marked(paymentIntent string) bool
	Mark(paymentIntent string)
}

// Registrar records a participant for a paid intent.
type Registrar interface {
	RegisterParticipant(ctx context.Context, req model.RegisterRequest) (*model.Participant, error)
}

// Outcome is the terminal state of one run. Participant is set only when
// this run created the row; Err carries the cause of an error state.
type Outcome struct {
	State       State
	Participant *model.Participant
	Err         error
}

// Flow runs the reconciliation state machine.
type Flow struct {
	registrar Registrar
}

// NewFlow constructs a Flow.
func NewFlow(registrar Registrar) *Flow {
	return &Flow{registrar: registrar}
}

var (
	errMissingIntent  = errors.New("missing payment intent")
	errMissingContact = errors.New("missing name, email or phone")
	errNotSucceeded   = errors.New("payment did not succeed")
)

// Run evaluates p and returns a terminal state. The registrar is never
// called unless the processor reported the payment as succeeded and the
// marker has not seen the intent.
func (f *Flow) Run(ctx context.Context, p Params, m Marker) Outcome {
	switch {
	case p.PaymentIntent == "":
		return Outcome{State: StatePaymentError, Err: errMissingIntent}
	case p.Name == "" || p.Email == "" || p.Phone == "":
		return Outcome{State: StatePaymentError, Err: errMissingContact}
	case p.RedirectStatus != payment.StatusSucceeded:
		return Outcome{State: StatePaymentError, Err: errNotSucceeded}
	}

	if m.Marked(p.PaymentIntent) {
		return Outcome{State: StateSuccess}
	}

	participant, err := f.registrar.RegisterParticipant(ctx, p.request())
	switch {
	case err == nil:
		m.Mark(p.PaymentIntent)
		return Outcome{State: StateSuccess, Participant: participant}
	case errors.Is(err, repository.ErrAlreadyRegistered):
		m.Mark(p.PaymentIntent)
		return Outcome{State: StateSuccess}
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrPaymentNotConfirmed):
		return Outcome{State: StatePaymentError, Err: err}
	default:
		logger.Errorf("reconcile %s: registration failed after payment: %v", p.PaymentIntent, err)
		return Outcome{State: StateRegistrationError, Err: err}
	}
}
