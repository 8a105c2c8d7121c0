package models

import (
	"time"

	"attestgate/pkg/domain"
)

// AnchorInfo records the best-effort blockchain anchor of an event. Nil when
// anchoring was unavailable at append time; never backfilled.
type AnchorInfo struct {
	Network     string
	TxHash      string
	BlockNumber int64
}

// ComplianceEvent is one immutable ledger row per verification transaction.
//
// Mutability contract: after append, only SubjectRef and CounterpartyRef may
// change, and only to nil, by anonymization. VerificationPayload, the
// outcome booleans, CreatedAt, and both reference codes are frozen — the
// reference codes are the durable audit trail that survives subject
// deletion.
type ComplianceEvent struct {
	// ID is a ULID assigned by the store at append; lexical order is time
	// order.
	ID string

	SubjectRef      *domain.SubjectID
	CounterpartyRef *domain.CounterpartyID

	SubjectReferenceCode      string
	CounterpartyReferenceCode string

	// VerificationPayload carries the structured claim data, including both
	// commitment payloads, exactly as produced at attestation time.
	VerificationPayload map[string]any

	AgeVerified     bool
	AddressVerified bool

	Anchor    *AnchorInfo
	CreatedAt time.Time
}
