package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/atmosgear/skate-league/internal/model"
)

// participantRow is the gorm mapping of the participants table.
type participantRow struct {
	ID                      string  `gorm:"primaryKey;size:36"`
	Name                    string  `gorm:"not null"`
	Email                   string  `gorm:"not null"`
	Phone                   string  `gorm:"not null"`
	EventID                 *string `gorm:"index:idx_participants_event"`
	Jersey                  *string
	JerseySize              *string
	PaymentIntentID         string `gorm:"uniqueIndex:participants_payment_intent_id_key;not null"`
	Amount                  float64
	Currency                string    `gorm:"not null"`
	PaymentStatus           string    `gorm:"not null"`
	Status                  string    `gorm:"not null;index:idx_participants_status_registered,priority:1"`
	RegisteredAt            time.Time `gorm:"not null;index:idx_participants_status_registered,priority:2"`
	ConfirmationEmailSent   bool      `gorm:"not null"`
	ConfirmationEmailSentAt *time.Time
}

func (participantRow) TableName() string { return "participants" }

func rowFromModel(p *model.Participant) participantRow {
	return participantRow{
		ID:                      p.ID,
		Name:                    p.Name,
		Email:                   p.Email,
		Phone:                   p.Phone,
		EventID:                 p.EventID,
		Jersey:                  p.Jersey,
		JerseySize:              p.JerseySize,
		PaymentIntentID:         p.PaymentIntentID,
		Amount:                  p.Amount,
		Currency:                p.Currency,
		PaymentStatus:           p.PaymentStatus,
		Status:                  p.Status,
		RegisteredAt:            p.RegisteredAt,
		ConfirmationEmailSent:   p.ConfirmationEmailSent,
		ConfirmationEmailSentAt: p.ConfirmationEmailSentAt,
	}
}

func (r participantRow) toModel() model.Participant {
	return model.Participant{
		ID:                      r.ID,
		Name:                    r.Name,
		Email:                   r.Email,
		Phone:                   r.Phone,
		EventID:                 r.EventID,
		Jersey:                  r.Jersey,
		JerseySize:              r.JerseySize,
		PaymentIntentID:         r.PaymentIntentID,
		Amount:                  r.Amount,
		Currency:                r.Currency,
		PaymentStatus:           r.PaymentStatus,
		Status:                  r.Status,
		RegisteredAt:            r.RegisteredAt,
		ConfirmationEmailSent:   r.ConfirmationEmailSent,
		ConfirmationEmailSentAt: r.ConfirmationEmailSentAt,
	}
}

// GormParticipantRepository stores participants through gorm, used with SQLite.
type GormParticipantRepository struct {
	db *gorm.DB
}

// NewGormParticipantRepository constructs a GormParticipantRepository.
func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	return &GormParticipantRepository{db: db}
}

// AutoMigrate creates the participants table and its indexes.
func (r *GormParticipantRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&participantRow{}); err != nil {
		return fmt.Errorf("auto-migrate participants: %w", err)
	}
	return nil
}

// Create inserts p, relying on the unique index for duplicate detection.
func (r *GormParticipantRepository) Create(ctx context.Context, p *model.Participant) error {
	prepareInsert(p)

	row := rowFromModel(p)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// isUniqueViolation recognises a unique constraint failure whether or not
// gorm translated it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// ListActive returns all non-canceled participants, oldest first.
func (r *GormParticipantRepository) ListActive(ctx context.Context) ([]model.Participant, error) {
	var rows []participantRow
	err := r.db.WithContext(ctx).
		Where("status <> ?", model.StatusCanceled).
		Order("registered_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return toModels(rows), nil
}

// ListPendingConfirmation returns non-canceled participants whose
// confirmation email has not been sent, oldest first.
func (r *GormParticipantRepository) ListPendingConfirmation(ctx context.Context) ([]model.Participant, error) {
	var rows []participantRow
	err := r.db.WithContext(ctx).
		Where("status <> ?", model.StatusCanceled).
		Where("confirmation_email_sent IS NULL OR confirmation_email_sent = ?", false).
		Order("registered_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list pending participants: %w", err)
	}
	return toModels(rows), nil
}

// MarkConfirmationSent sets the email flag and its timestamp together.
func (r *GormParticipantRepository) MarkConfirmationSent(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&participantRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"confirmation_email_sent":    true,
			"confirmation_email_sent_at": at.UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("mark confirmation sent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByEvent counts non-canceled participants for each of eventIDs.
// Ids without registrations are absent from the result.
func (r *GormParticipantRepository) CountByEvent(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID string
		N       int
	}
	err := r.db.WithContext(ctx).
		Model(&participantRow{}).
		Select("event_id, COUNT(*) AS n").
		Where("event_id IN ? AND status <> ?", eventIDs, model.StatusCanceled).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	for _, row := range rows {
		counts[row.EventID] = row.N
	}
	return counts, nil
}

func toModels(rows []participantRow) []model.Participant {
	out := make([]model.Participant, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out
}
