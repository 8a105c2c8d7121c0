package models

import (
	"time"

	"attestgate/pkg/domain"
)

// PaymentEvent is one immutable payment ledger row. Same mutability contract
// as the compliance ledger: anonymization may null SubjectRef; the durable
// CustomerReferenceCode and the monetary fields are frozen at append.
type PaymentEvent struct {
	// ID is a ULID assigned by the store at append.
	ID string

	SubjectRef            *domain.SubjectID
	CustomerReferenceCode string
	AmountCents           int64
	Currency              string
	Status                string
	CreatedAt             time.Time
}

// Payment statuses as reported by the payment provider webhook.
const (
	StatusSucceeded = "succeeded"
	StatusRefunded  = "refunded"
	StatusFailed    = "failed"
)
