// Package database owns the SQL schema and connection setup for the
// service's PostgreSQL store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// Open connects to PostgreSQL through the pgx stdlib driver and verifies the
// connection before returning it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the full DDL for the service's tables. Applied idempotently at
// startup and by integration tests; every statement must stay re-runnable.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	subject_id     UUID PRIMARY KEY,
	auth_id        TEXT NOT NULL UNIQUE,
	email          TEXT NOT NULL,
	reference_code TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS subject_secrets (
	subject_id                    UUID PRIMARY KEY,
	encrypted_identity_attributes BYTEA NOT NULL,
	encrypted_credential_bundle   BYTEA NOT NULL,
	encryption_key_id             TEXT NOT NULL,
	verification_session_ref      TEXT NOT NULL DEFAULT '',
	created_at                    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS compliance_events (
	id                          TEXT PRIMARY KEY,
	subject_ref                 UUID NULL,
	counterparty_ref            UUID NULL,
	subject_reference_code      TEXT NOT NULL,
	counterparty_reference_code TEXT NOT NULL,
	verification_payload        JSONB NOT NULL,
	age_verified                BOOLEAN NOT NULL,
	address_verified            BOOLEAN NOT NULL,
	anchor_network              TEXT NULL,
	anchor_tx_hash              TEXT NULL,
	anchor_block_number         BIGINT NULL,
	created_at                  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_compliance_events_subject
	ON compliance_events (subject_ref, id DESC);
CREATE INDEX IF NOT EXISTS idx_compliance_events_counterparty
	ON compliance_events (counterparty_ref, id DESC);

CREATE TABLE IF NOT EXISTS payment_events (
	id                      TEXT PRIMARY KEY,
	subject_ref             UUID NULL,
	customer_reference_code TEXT NOT NULL,
	amount_cents            BIGINT NOT NULL,
	currency                TEXT NOT NULL,
	status                  TEXT NOT NULL,
	created_at              TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payment_events_subject
	ON payment_events (subject_ref, id DESC);
`

// EnsureSchema applies the schema DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
