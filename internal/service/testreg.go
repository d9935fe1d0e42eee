package service

import (
	"context"

	"github.com/google/logger"
	"github.com/google/uuid"

	"github.com/atmosgear/skate-league/internal/model"
	"github.com/atmosgear/skate-league/internal/payment"
)

// TestRegistration inserts a zero-amount participant without going through
// the payment processor, then sends the confirmation email when a provider
// is configured. It exists to verify a deployment end to end.
func (s *RegistrationService) TestRegistration(ctx context.Context, req model.TestRegistrationRequest) (*model.TestRegistrationResponse, error) {
	name, addr, phone, err := validateContact(req.Name, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}

	p := &model.Participant{
		Name:            name,
		Email:           addr,
		Phone:           phone,
		EventID:         optional(req.EventID),
		Jersey:          optional(req.Jersey),
		JerseySize:      optional(req.JerseySize),
		PaymentIntentID: "test_" + uuid.NewString(),
		Amount:          0,
		Currency:        s.opts.Currency,
		PaymentStatus:   payment.StatusSucceeded,
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.Infof("test participant %s registered (intent %s)", p.ID, p.PaymentIntentID)

	resp := &model.TestRegistrationResponse{
		Success:     true,
		Message:     "Test registration recorded",
		Participant: p.Summary(),
	}

	switch {
	case s.mailer == nil:
		resp.EmailNote = "Email provider not configured, no email sent."
	default:
		if err := s.sendConfirmation(ctx, p, req.Creneau, req.Date); err != nil {
			logger.Warningf("test registration email failed: %v", err)
			resp.EmailNote = "Confirmation email failed (see logs)."
		} else {
			resp.EmailSent = true
			resp.EmailNote = "Confirmation email sent."
		}
	}
	return resp, nil
}
