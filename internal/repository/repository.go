// Package repository implements participant persistence. The unique
// constraint on payment_intent_id is enforced by the storage engine itself
// and surfaces as ErrAlreadyRegistered.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atmosgear/skate-league/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRegistered is returned when a payment intent already has a participant.
var ErrAlreadyRegistered = errors.New("payment intent already registered")

const pgUniqueViolation = "23505"

const participantColumns = `id, name, email, phone, event_id, jersey, jersey_size,
	payment_intent_id, amount, currency, payment_status, status, registered_at,
	confirmation_email_sent, confirmation_email_sent_at`

// PostgresParticipantRepository stores participants in PostgreSQL using pgx directly.
type PostgresParticipantRepository struct {
	db *pgxpool.Pool
}

// NewPostgresParticipantRepository constructs a PostgresParticipantRepository.
func NewPostgresParticipantRepository(db *pgxpool.Pool) *PostgresParticipantRepository {
	return &PostgresParticipantRepository{db: db}
}

// prepareInsert fills the fields owned by the store.
func prepareInsert(p *model.Participant) {
	p.ID = uuid.New().String()
	p.RegisteredAt = time.Now().UTC()
	if p.Status == "" {
		p.Status = model.StatusActive
	}
	p.ConfirmationEmailSent = false
	p.ConfirmationEmailSentAt = nil
}

// Create inserts p. A second insert for the same payment intent fails with
// ErrAlreadyRegistered; there is no check-then-insert, the unique constraint
// decides under concurrency.
func (r *PostgresParticipantRepository) Create(ctx context.Context, p *model.Participant) error {
	prepareInsert(p)

	_, err := r.db.Exec(ctx,
		`INSERT INTO participants (id, name, email, phone, event_id, jersey, jersey_size,
			payment_intent_id, amount, currency, payment_status, status, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.Name, p.Email, p.Phone, p.EventID, p.Jersey, p.JerseySize,
		p.PaymentIntentID, p.Amount, p.Currency, p.PaymentStatus, p.Status, p.RegisteredAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// ListActive returns all non-canceled participants, oldest first.
func (r *PostgresParticipantRepository) ListActive(ctx context.Context) ([]model.Participant, error) {
	return r.list(ctx,
		`SELECT `+participantColumns+`
		 FROM participants
		 WHERE status <> $1
		 ORDER BY registered_at ASC`,
		model.StatusCanceled,
	)
}

// ListPendingConfirmation returns non-canceled participants whose
// confirmation email has not been sent, oldest first.
func (r *PostgresParticipantRepository) ListPendingConfirmation(ctx context.Context) ([]model.Participant, error) {
	return r.list(ctx,
		`SELECT `+participantColumns+`
		 FROM participants
		 WHERE status <> $1 AND confirmation_email_sent IS NOT TRUE
		 ORDER BY registered_at ASC`,
		model.StatusCanceled,
	)
}

func (r *PostgresParticipantRepository) list(ctx context.Context, query string, args ...any) ([]model.Participant, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Email, &p.Phone, &p.EventID, &p.Jersey, &p.JerseySize,
			&p.PaymentIntentID, &p.Amount, &p.Currency, &p.PaymentStatus, &p.Status, &p.RegisteredAt,
			&p.ConfirmationEmailSent, &p.ConfirmationEmailSentAt,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkConfirmationSent sets the email flag and its timestamp together.
func (r *PostgresParticipantRepository) MarkConfirmationSent(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE participants
		 SET confirmation_email_sent = TRUE, confirmation_email_sent_at = $2
		 WHERE id = $1`,
		id, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark confirmation sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByEvent counts non-canceled participants for each of eventIDs.
// Ids without registrations are absent from the result.
func (r *PostgresParticipantRepository) CountByEvent(ctx context.Context, eventIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT event_id, COUNT(*)
		 FROM participants
		 WHERE event_id = ANY($1) AND status <> $2
		 GROUP BY event_id`,
		eventIDs, model.StatusCanceled,
	)
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
