package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"attestgate/internal/ledger/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
	txcontext "attestgate/pkg/platform/tx"
)

// PostgresStore persists compliance events. Append-only: there is no update
// path except AnonymizeForSubject, which nulls exactly one column set.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed compliance event ledger.
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

// Append inserts an event, assigning its time-ordered ID and create
// timestamp. Returns the stored event.
func (s *PostgresStore) Append(ctx context.Context, event models.ComplianceEvent) (models.ComplianceEvent, error) {
	event.ID = ulid.Make().String()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event.VerificationPayload)
	if err != nil {
		return models.ComplianceEvent{}, fmt.Errorf("marshal verification payload: %w", err)
	}

	var subjectRef, counterpartyRef any
	if event.SubjectRef != nil {
		subjectRef = event.SubjectRef.String()
	}
	if event.CounterpartyRef != nil {
		counterpartyRef = event.CounterpartyRef.String()
	}

	var anchorNetwork, anchorTxHash any
	var anchorBlock any
	if event.Anchor != nil {
		anchorNetwork = event.Anchor.Network
		anchorTxHash = event.Anchor.TxHash
		anchorBlock = event.Anchor.BlockNumber
	}

	query := `
		INSERT INTO compliance_events (
			id, subject_ref, counterparty_ref,
			subject_reference_code, counterparty_reference_code,
			verification_payload, age_verified, address_verified,
			anchor_network, anchor_tx_hash, anchor_block_number, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		subjectRef,
		counterpartyRef,
		event.SubjectReferenceCode,
		event.CounterpartyReferenceCode,
		payload,
		event.AgeVerified,
		event.AddressVerified,
		anchorNetwork,
		anchorTxHash,
		anchorBlock,
		event.CreatedAt,
	)
	if err != nil {
		return models.ComplianceEvent{}, fmt.Errorf("insert compliance event: %w", err)
	}
	return event, nil
}

const selectColumns = `
	SELECT id, subject_ref, counterparty_ref,
	       subject_reference_code, counterparty_reference_code,
	       verification_payload, age_verified, address_verified,
	       anchor_network, anchor_tx_hash, anchor_block_number, created_at
	FROM compliance_events
`

// GetByID fetches a single event. Returns sentinel.ErrNotFound when absent.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.ComplianceEvent, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("query compliance event: %w", err)
	}
	return event, nil
}

// ListBySubject returns a subject's events, newest first.
func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]models.ComplianceEvent, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE subject_ref = $1 ORDER BY id DESC`, subjectID.String())
	if err != nil {
		return nil, fmt.Errorf("query compliance events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByCounterparty returns a counterparty's events, newest first.
func (s *PostgresStore) ListByCounterparty(ctx context.Context, counterpartyID domain.CounterpartyID) ([]models.ComplianceEvent, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE counterparty_ref = $1 ORDER BY id DESC`, counterpartyID.String())
	if err != nil {
		return nil, fmt.Errorf("query compliance events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// AnonymizeForSubject nulls the subject foreign key on all of a subject's
// events and reports how many rows changed. Reference codes, payload, and
// outcome fields are deliberately untouched.
func (s *PostgresStore) AnonymizeForSubject(ctx context.Context, subjectID domain.SubjectID) (int64, error) {
	result, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE compliance_events SET subject_ref = NULL WHERE subject_ref = $1`,
		subjectID.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("anonymize compliance events: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("anonymize compliance events: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.ComplianceEvent, error) {
	var (
		event           models.ComplianceEvent
		subjectRef      sql.NullString
		counterpartyRef sql.NullString
		payload         []byte
		anchorNetwork   sql.NullString
		anchorTxHash    sql.NullString
		anchorBlock     sql.NullInt64
	)

	err := row.Scan(
		&event.ID,
		&subjectRef,
		&counterpartyRef,
		&event.SubjectReferenceCode,
		&event.CounterpartyReferenceCode,
		&payload,
		&event.AgeVerified,
		&event.AddressVerified,
		&anchorNetwork,
		&anchorTxHash,
		&anchorBlock,
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
	if counterpartyRef.Valid {
		parsed, err := domain.ParseCounterpartyID(counterpartyRef.String)
		if err != nil {
			return nil, fmt.Errorf("scan counterparty ref: %w", err)
		}
		event.CounterpartyRef = &parsed
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &event.VerificationPayload); err != nil {
			return nil, fmt.Errorf("unmarshal verification payload: %w", err)
		}
	}
	if anchorNetwork.Valid {
		event.Anchor = &models.AnchorInfo{
			Network:     anchorNetwork.String,
			TxHash:      anchorTxHash.String,
			BlockNumber: anchorBlock.Int64,
		}
	}
	return &event, nil
}

func scanEvents(rows *sql.Rows) ([]models.ComplianceEvent, error) {
	var events []models.ComplianceEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compliance event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance events: %w", err)
	}
	return events, nil
}
