package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"attestgate/internal/payments/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

// PostgresStore persists payment events.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed payment ledger.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts a payment event, assigning its ID and create timestamp.
func (s *PostgresStore) Append(ctx context.Context, event models.PaymentEvent) (models.PaymentEvent, error) {
	event.ID = ulid.Make().String()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var subjectRef any
	if event.SubjectRef != nil {
		subjectRef = event.SubjectRef.String()
	}

	query := `
		INSERT INTO payment_events (
			id, subject_ref, customer_reference_code,
			amount_cents, currency, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		subjectRef,
		event.CustomerReferenceCode,
		event.AmountCents,
		event.Currency,
		event.Status,
		event.CreatedAt,
	)
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("insert payment event: %w", err)
	}
	return event, nil
}

// GetByID fetches a single payment event.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.PaymentEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_ref, customer_reference_code,
		       amount_cents, currency, status, created_at
		FROM payment_events
		WHERE id = $1
	`, id)

	event, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query payment event: %w", err)
	}
	return event, nil
}

// ListBySubject returns a subject's payment events, newest first.
func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]models.PaymentEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_ref, customer_reference_code,
		       amount_cents, currency, status, created_at
		FROM payment_events
		WHERE subject_ref = $1
		ORDER BY id DESC
	`, subjectID.String())
	if err != nil {
		return nil, fmt.Errorf("query payment events: %w", err)
	}
	defer rows.Close()

	var events []models.PaymentEvent
	for rows.Next() {
		event, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment events: %w", err)
	}
	return events, nil
}

// AnonymizeForSubject nulls the subject foreign key on all of a subject's
// payment events and reports the row count.
func (s *PostgresStore) AnonymizeForSubject(ctx context.Context, subjectID domain.SubjectID) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE payment_events SET subject_ref = NULL WHERE subject_ref = $1`,
		subjectID.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("anonymize payment events: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("anonymize payment events: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.PaymentEvent, error) {
	var (
		event      models.PaymentEvent
		subjectRef sql.NullString
	)
	err := row.Scan(
		&event.ID,
		&subjectRef,
		&event.CustomerReferenceCode,
		&event.AmountCents,
		&event.Currency,
		&event.Status,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if subjectRef.Valid {
		parsed, err := domain.ParseSubjectID(subjectRef.String)
		if err != nil {
			return nil, fmt.Errorf("scan subject ref: %w", err)
		}
		event.SubjectRef = &parsed
	}
	return &event, nil
}
