// Package model defines the core domain types for the league registration service.
package model

import "time"

// Participant lifecycle tags.
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
)

// EventType identifies the race format of an event.
type EventType string

const (
	EventKing     EventType = "king"
	EventQueen    EventType = "queen"
	EventElectric EventType = "electric"
	EventMixte    EventType = "mixte"
)

// Valid reports whether t is one of the known race formats.
func (t EventType) Valid() bool {
	switch t {
	case EventKing, EventQueen, EventElectric, EventMixte:
		return true
	}
	return false
}

// Event is a race slot from the static catalog.
type Event struct {
	ID         string    `json:"id" yaml:"id"`
	Date       string    `json:"date" yaml:"date"`
	Time       string    `json:"time" yaml:"time"`
	Title      string    `json:"title" yaml:"title"`
	Type       EventType `json:"type" yaml:"type"`
	TotalSpots int       `json:"totalSpots" yaml:"total_spots"`
	ComingSoon bool      `json:"comingSoon" yaml:"coming_soon"`
}

// EventAvailability is an Event together with its current registration count.
type EventAvailability struct {
	Event
	Registered int `json:"registered"`
	SpotsLeft  int `json:"spotsLeft"`
}

// Participant is a paid registration. It is created once per succeeded
// payment intent and only ever mutated to record the confirmation email.
type Participant struct {
	ID                      string     `json:"id"`
	Name                    string     `json:"name"`
	Email                   string     `json:"email"`
	Phone                   string     `json:"phone"`
	EventID                 *string    `json:"event_id"`
	Jersey                  *string    `json:"jersey"`
	JerseySize              *string    `json:"jersey_size"`
	PaymentIntentID         string     `json:"payment_intent_id"`
	Amount                  float64    `json:"amount"`
	Currency                string     `json:"currency"`
	PaymentStatus           string     `json:"payment_status"`
	Status                  string     `json:"status"`
	RegisteredAt            time.Time  `json:"registered_at"`
	ConfirmationEmailSent   bool       `json:"confirmation_email_sent"`
	ConfirmationEmailSentAt *time.Time `json:"confirmation_email_sent_at"`
}

// CreatePaymentIntentRequest is the payload for creating a payment intent.
type CreatePaymentIntentRequest struct {
	Amount *int64 `json:"amount,omitempty"`
}

// CreatePaymentIntentResponse carries the secret the browser uses to
// complete payment directly with the processor.
type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// RegisterRequest is the payload for registering a participant after payment.
type RegisterRequest struct {
	PaymentIntent string `json:"paymentIntent"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	EventID       string `json:"eventId,omitempty"`
	Jersey        string `json:"jersey,omitempty"`
	JerseySize    string `json:"jersey_size,omitempty"`
}

// ParticipantSummary is the public subset of a Participant returned on registration.
type ParticipantSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	EventID      *string   `json:"event_id,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegisterResponse is returned by a successful registration.
type RegisterResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Participant ParticipantSummary `json:"participant"`
}

// AdminParticipantsResponse lists active participants, flat and grouped by event.
type AdminParticipantsResponse struct {
	Participants []Participant            `json:"participants"`
	ByEvent      map[string][]Participant `json:"byEvent"`
}

// BackfillItem is the outcome of one confirmation email in a backfill run.
type BackfillItem struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BackfillResult summarises a confirmation email backfill run.
type BackfillResult struct {
	Message string         `json:"message"`
	Sent    int            `json:"sent"`
	Failed  int            `json:"failed"`
	Results []BackfillItem `json:"results"`
}

// TestRegistrationRequest registers a participant without payment.
type TestRegistrationRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	EventID    string `json:"eventId,omitempty"`
	Creneau    string `json:"creneau,omitempty"`
	Date       string `json:"date,omitempty"`
	Jersey     string `json:"jersey,omitempty"`
	JerseySize string `json:"jersey_size,omitempty"`
	TestSecret string `json:"testSecret,omitempty"`
}

// TestRegistrationResponse reports the inserted row and the email outcome.
type TestRegistrationResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Participant ParticipantSummary `json:"participant"`
	EmailSent   bool               `json:"emailSent"`
	EmailNote   string             `json:"emailNote"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Summary returns the public view of p.
func (p *Participant) Summary() ParticipantSummary {
	return ParticipantSummary{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		EventID:      p.EventID,
		RegisteredAt: p.RegisteredAt,
	}
}

// EventKey returns the participant's event id, or fallback when none was chosen.
func (p *Participant) EventKey(fallback string) string {
	if p.EventID == nil || *p.EventID == "" {
		return fallback
	}
	return *p.EventID
}
