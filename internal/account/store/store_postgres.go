package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attestgate/internal/account/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

// PostgresStore persists subject accounts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed account store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts an account row.
func (s *PostgresStore) Create(ctx context.Context, account models.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (subject_id, auth_id, email, reference_code, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		account.SubjectID.String(),
		account.AuthID,
		account.Email,
		account.ReferenceCode,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetBySubject fetches the account owning a subject ID.
// Returns sentinel.ErrNotFound when no row exists.
func (s *PostgresStore) GetBySubject(ctx context.Context, subjectID domain.SubjectID) (*models.Account, error) {
	return s.get(ctx, `WHERE subject_id = $1`, subjectID.String())
}

// GetByAuthID fetches the account linked to an auth-provider identity.
func (s *PostgresStore) GetByAuthID(ctx context.Context, authID string) (*models.Account, error) {
	return s.get(ctx, `WHERE auth_id = $1`, authID)
}

func (s *PostgresStore) get(ctx context.Context, where string, arg any) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT subject_id, auth_id, email, reference_code, created_at
		FROM accounts `+where, arg)

	var (
		account models.Account
		rawID   string
	)
	err := row.Scan(&rawID, &account.AuthID, &account.Email, &account.ReferenceCode, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}

	parsed, err := domain.ParseSubjectID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.SubjectID = parsed
	return &account, nil
}

// Delete removes an account row. Returns sentinel.ErrNotFound when no row
// matched.
func (s *PostgresStore) Delete(ctx context.Context, subjectID domain.SubjectID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE subject_id = $1`, subjectID.String())
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
