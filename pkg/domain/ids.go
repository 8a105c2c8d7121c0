package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Typed identifiers for the core entities. Wrapping uuid.UUID keeps the
// compiler between us and the "passed a counterparty ID where a subject ID
// belongs" class of bug.
type (
	// SubjectID identifies a verified subject (the data owner).
	SubjectID uuid.UUID

	// CounterpartyID identifies the regulated merchant on the other side
	// of a verification transaction.
	CounterpartyID uuid.UUID
)

// NewSubjectID generates a random subject ID.
func NewSubjectID() SubjectID {
	return SubjectID(uuid.New())
}

// NewCounterpartyID generates a random counterparty ID.
func NewCounterpartyID() CounterpartyID {
	return CounterpartyID(uuid.New())
}

// ParseSubjectID constructs a SubjectID from external input.
// Returns an error when the value is not a valid UUID.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SubjectID{}, fmt.Errorf("parse subject id: %w", err)
	}
	return SubjectID(u), nil
}

// ParseCounterpartyID constructs a CounterpartyID from external input.
func ParseCounterpartyID(s string) (CounterpartyID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CounterpartyID{}, fmt.Errorf("parse counterparty id: %w", err)
	}
	return CounterpartyID(u), nil
}

func (id SubjectID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id SubjectID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CounterpartyID) String() string { return uuid.UUID(id).String() }

func (id CounterpartyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// SubjectReferenceCode derives the stable pseudonymous code that identifies
// a subject in ledger rows. The code survives account deletion: anonymization
// nulls the direct foreign key but never touches the reference code, so the
// audit trail stays joinable without pointing at a living identity row.
func SubjectReferenceCode(id SubjectID) string {
	return referenceCode("SUB", uuid.UUID(id))
}

// CounterpartyReferenceCode derives the durable pseudonymous code for a
// counterparty.
func CounterpartyReferenceCode(id CounterpartyID) string {
	return referenceCode("CPT", uuid.UUID(id))
}

// CustomerReferenceCode derives the durable pseudonymous code used on
// payment ledger rows.
func CustomerReferenceCode(id SubjectID) string {
	return referenceCode("CUS", uuid.UUID(id))
}

func referenceCode(prefix string, u uuid.UUID) string {
	sum := sha256.Sum256([]byte(prefix + ":" + u.String()))
	return prefix + "-" + hex.EncodeToString(sum[:8])
}
