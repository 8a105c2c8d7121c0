package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"attestgate/internal/secrets/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
	txcontext "attestgate/pkg/platform/tx"
)

// PostgresStore persists encrypted secret records. One row per subject,
// enforced by the primary key on subject_id.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed secret store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create inserts the secret record for a subject. Returns
// sentinel.ErrConflict when a record already exists: the caller decides
// whether that is a retry or a bug, the store only reports the fact.
func (s *PostgresStore) Create(ctx context.Context, record models.SecretRecord) error {
	query := `
		INSERT INTO subject_secrets (
			subject_id, encrypted_identity_attributes, encrypted_credential_bundle,
			encryption_key_id, verification_session_ref, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.SubjectID.String(),
		record.EncryptedIdentityAttributes,
		record.EncryptedCredentialBundle,
		record.EncryptionKeyID,
		record.VerificationSessionRef,
		record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("secret record for subject %s: %w", record.SubjectID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert secret record: %w", err)
	}
	return nil
}

// isUniqueViolation recognizes SQLSTATE 23505 from either driver: pgx in the
// server, lib/pq in the integration suites.
func isUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// Get retrieves the secret record for a subject.
// Returns sentinel.ErrNotFound when no row exists.
func (s *PostgresStore) Get(ctx context.Context, subjectID domain.SubjectID) (*models.SecretRecord, error) {
	query := `
		SELECT subject_id, encrypted_identity_attributes, encrypted_credential_bundle,
		       encryption_key_id, verification_session_ref, created_at
		FROM subject_secrets
		WHERE subject_id = $1
	`

	var (
		record models.SecretRecord
		rawID  string
	)
	err := s.db.QueryRowContext(ctx, query, subjectID.String()).Scan(
		&rawID,
		&record.EncryptedIdentityAttributes,
		&record.EncryptedCredentialBundle,
		&record.EncryptionKeyID,
		&record.VerificationSessionRef,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query secret record: %w", err)
	}

	parsed, err := domain.ParseSubjectID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan secret record: %w", err)
	}
	record.SubjectID = parsed
	return &record, nil
}

// Delete removes the secret record for a subject. Returns
// sentinel.ErrNotFound when no row matched, so the erasure orchestrator can
// distinguish "already gone" from a failed delete.
func (s *PostgresStore) Delete(ctx context.Context, subjectID domain.SubjectID) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM subject_secrets WHERE subject_id = $1`, subjectID.String())
	if err != nil {
		return fmt.Errorf("delete secret record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete secret record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
