package service

import (
	"context"
	"fmt"

	"github.com/google/logger"

	"github.com/atmosgear/skate-league/internal/model"
)

// BackfillConfirmationEmails sends the confirmation email to every active
// participant that has not received it, oldest first. Sends are strictly
// sequential, each bounded by the email timeout; a failure is recorded and
// the batch moves on. The flag is only set after a successful send.
func (s *RegistrationService) BackfillConfirmationEmails(ctx context.Context) (*model.BackfillResult, error) {
	if s.mailer == nil {
		return nil, ErrEmailNotConfigured
	}

	pending, err := s.participants.ListPendingConfirmation(ctx)
	if err != nil {
		return nil, err
	}

	result := &model.BackfillResult{Results: []model.BackfillItem{}}
	if len(pending) == 0 {
		result.Message = "No participant is missing a confirmation email."
		return result, nil
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := &pending[i]
		item := model.BackfillItem{ID: p.ID, Email: p.Email}
		if err := s.sendConfirmation(ctx, p, "", ""); err != nil {
			result.Failed++
			item.Error = err.Error()
			logger.Warningf("backfill: confirmation for participant %s failed: %v", p.ID, err)
		} else {
			result.Sent++
			item.Success = true
		}
		result.Results = append(result.Results, item)
	}

	result.Message = fmt.Sprintf("Sent: %d, failed: %d.", result.Sent, result.Failed)
	logger.Infof("backfill finished: %s", result.Message)
	return result, nil
}
