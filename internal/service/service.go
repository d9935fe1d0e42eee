// Package service implements registration business logic, validation, and
// orchestration between HTTP handlers, the payment processor, the participant
// store, and the email provider.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/logger"

	"github.com/atmosgear/skate-league/internal/catalog"
	"github.com/atmosgear/skate-league/internal/email"
	"github.com/atmosgear/skate-league/internal/model"
	"github.com/atmosgear/skate-league/internal/payment"
)

// ErrInvalidInput marks validation failures; wrapped errors carry the detail.
var ErrInvalidInput = errors.New("invalid input")

// ErrPaymentNotConfirmed is returned when the processor does not report the
// payment intent as succeeded.
var ErrPaymentNotConfirmed = errors.New("payment not confirmed")

// ErrEmailNotConfigured is returned by operations that need an email provider
// when none is configured.
var ErrEmailNotConfigured = errors.New("email provider not configured")

// NoEventKey groups participants that did not choose an event slot.
const NoEventKey = "__sans_creneau__"

// ParticipantStore is the persistence the service needs.
type ParticipantStore interface {
	Create(ctx context.Context, p *model.Participant) error
	ListActive(ctx context.Context) ([]model.Participant, error)
	ListPendingConfirmation(ctx context.Context) ([]model.Participant, error)
	MarkConfirmationSent(ctx context.Context, id string, at time.Time) error
	CountByEvent(ctx context.Context, eventIDs []string) (map[string]int, error)
}

// Options tunes the registration service.
type Options struct {
	EventFee     int64  // minor currency units
	Currency     string // ISO 4217, lower case
	EmailTimeout time.Duration
}

// RegistrationService orchestrates payment, registration, and email operations.
type RegistrationService struct {
	participants ParticipantStore
	payments     payment.Processor
	mailer       email.Sender // nil when no provider is configured
	events       *catalog.Catalog
	opts         Options
	now          func() time.Time
}

// NewRegistrationService constructs a RegistrationService. mailer may be nil.
func NewRegistrationService(
	participants ParticipantStore,
	payments payment.Processor,
	mailer email.Sender,
	events *catalog.Catalog,
	opts Options,
) *RegistrationService {
	if opts.EventFee <= 0 {
		opts.EventFee = 3500
	}
	if opts.Currency == "" {
		opts.Currency = "eur"
	}
	if opts.EmailTimeout <= 0 {
		opts.EmailTimeout = 10 * time.Second
	}
	return &RegistrationService{
		participants: participants,
		payments:     payments,
		mailer:       mailer,
		events:       events,
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// EmailConfigured reports whether confirmation emails can be sent.
func (s *RegistrationService) EmailConfigured() bool {
	return s.mailer != nil
}

// Events returns the event catalog.
func (s *RegistrationService) Events() *catalog.Catalog {
	return s.events
}

// CreatePaymentIntent creates a processor intent for amount, defaulting to
// the event fee, and returns the client secret. Nothing is persisted.
func (s *RegistrationService) CreatePaymentIntent(ctx context.Context, amount *int64) (string, error) {
	fee := s.opts.EventFee
	if amount != nil {
		fee = *amount
	}
	if fee <= 0 {
		return "", fmt.Errorf("%w: amount must be a positive integer", ErrInvalidInput)
	}

	intent, err := s.payments.CreateIntent(ctx, fee)
	if err != nil {
		return "", err
	}
	return intent.ClientSecret, nil
}

// RegisterParticipant records a participant for a succeeded payment intent.
// The intent is re-fetched from the processor so the stored amount never
// comes from the client. A second call for the same intent returns
// repository.ErrAlreadyRegistered. The confirmation email is attempted after
// the insert; its failure does not fail the registration.
func (s *RegistrationService) RegisterParticipant(ctx context.Context, req model.RegisterRequest) (*model.Participant, error) {
	req.PaymentIntent = strings.TrimSpace(req.PaymentIntent)
	name, mailAddr, phone, err := validateContact(req.Name, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	if req.PaymentIntent == "" {
		return nil, fmt.Errorf("%w: missing required fields: paymentIntent, name, email, phone", ErrInvalidInput)
	}

	intent, err := s.payments.GetIntent(ctx, req.PaymentIntent)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return nil, ErrPaymentNotConfirmed
		}
		return nil, err
	}
	if !intent.Succeeded() {
		return nil, ErrPaymentNotConfirmed
	}

	p := &model.Participant{
		Name:            name,
		Email:           mailAddr,
		Phone:           phone,
		EventID:         optional(req.EventID),
		Jersey:          optional(req.Jersey),
		JerseySize:      optional(req.JerseySize),
		PaymentIntentID: intent.ID,
		Amount:          intent.MajorAmount(),
		Currency:        intent.Currency,
		PaymentStatus:   intent.Status,
	}
	if p.EventID != nil {
		if _, ok := s.events.Get(*p.EventID); !ok {
			logger.Warningf("registration %s references unknown event %q", intent.ID, *p.EventID)
		}
	}

	if err := s.participants.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.Infof("participant %s registered for intent %s (event %s)", p.ID, p.PaymentIntentID, p.EventKey(NoEventKey))

	if s.mailer != nil {
		if err := s.sendConfirmation(ctx, p, "", ""); err != nil {
			logger.Warningf("confirmation email for participant %s failed: %v", p.ID, err)
		}
	}
	return p, nil
}

// sendConfirmation sends the email and records it on the row. title and date
// override the catalog values when set.
func (s *RegistrationService) sendConfirmation(ctx context.Context, p *model.Participant, title, date string) error {
	if s.mailer == nil {
		return ErrEmailNotConfigured
	}
	if p.EventID != nil {
		if ev, ok := s.events.Get(*p.EventID); ok {
			if title == "" {
				title = ev.Title
			}
			if date == "" {
				date = ev.Date
			}
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.EmailTimeout)
	defer cancel()

	err := s.mailer.SendRegistrationConfirmation(sendCtx, email.Message{
		Name:       p.Name,
		Email:      p.Email,
		EventTitle: title,
		EventDate:  date,
	})
	if err != nil {
		return err
	}

	sentAt := s.now()
	if sentAt.Before(p.RegisteredAt) {
		sentAt = p.RegisteredAt
	}
	if err := s.participants.MarkConfirmationSent(ctx, p.ID, sentAt); err != nil {
		return fmt.Errorf("email sent but flag update failed: %w", err)
	}
	p.ConfirmationEmailSent = true
	p.ConfirmationEmailSentAt = &sentAt
	return nil
}

// AdminParticipants lists active participants, oldest first, and groups them
// by event id. Participants without an event are grouped under NoEventKey.
func (s *RegistrationService) AdminParticipants(ctx context.Context) (*model.AdminParticipantsResponse, error) {
	rows, err := s.participants.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.Participant{}
	}

	byEvent := make(map[string][]model.Participant)
	for _, p := range rows {
		key := p.EventKey(NoEventKey)
		byEvent[key] = append(byEvent[key], p)
	}
	return &model.AdminParticipantsResponse{Participants: rows, ByEvent: byEvent}, nil
}

// ParticipantCounts returns the number of active registrations for every
// requested event id, zero-filled.
func (s *RegistrationService) ParticipantCounts(ctx context.Context, eventIDs []string) (map[string]int, error) {
	ids := make([]string, 0, len(eventIDs))
	seen := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	counts := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	found, err := s.participants.CountByEvent(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		counts[id] = found[id]
	}
	return counts, nil
}

// EventAvailability returns the catalog with current registration counts.
func (s *RegistrationService) EventAvailability(ctx context.Context) ([]model.EventAvailability, error) {
	counts, err := s.ParticipantCounts(ctx, s.events.IDs())
	if err != nil {
		return nil, err
	}

	events := s.events.All()
	out := make([]model.EventAvailability, len(events))
	for i, e := range events {
		left := e.TotalSpots - counts[e.ID]
		if left < 0 {
			left = 0
		}
		out[i] = model.EventAvailability{Event: e, Registered: counts[e.ID], SpotsLeft: left}
	}
	return out, nil
}

func validateContact(name, addr, phone string) (string, string, string, error) {
	name = strings.TrimSpace(name)
	addr = strings.TrimSpace(addr)
	phone = strings.TrimSpace(phone)
	if name == "" || addr == "" || phone == "" {
		return "", "", "", fmt.Errorf("%w: missing required fields: name, email, phone", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return "", "", "", fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}
	return name, addr, phone, nil
}

// optional converts blank form input to a NULL column value.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
