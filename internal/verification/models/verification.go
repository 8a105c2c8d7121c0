package models

import (
	"time"

	"attestgate/internal/attestation"
	"attestgate/pkg/domain"
)

// Session binds a hosted identity provider inquiry to the subject and
// counterparty that initiated it. Created when the inquiry starts, claimed
// exactly once when verification completes, expired by TTL otherwise.
type Session struct {
	Ref            string                `json:"ref"`
	SubjectID      domain.SubjectID      `json:"subject_id"`
	CounterpartyID domain.CounterpartyID `json:"counterparty_id"`
	CreatedAt      time.Time             `json:"created_at"`
}

// IdentityAttributes are the decrypted identity fields the provider
// supplies at verification time. Ephemeral: they exist in process memory
// only for the duration of attestation generation and are persisted solely
// in sealed form.
type IdentityAttributes struct {
	DateOfBirth     time.Time
	Address         attestation.Address
	DocumentNumbers []string
}

// CompleteRequest carries everything needed to finish a verification.
type CompleteRequest struct {
	SessionRef   string
	Identity     IdentityAttributes
	AddressMatch attestation.MatchResult
	AgeThreshold int
}

// Outcome is the caller-visible result of a completed verification.
type Outcome struct {
	EventID           string    `json:"event_id"`
	SubjectRefCode    string    `json:"subject_reference_code"`
	AgeVerified       bool      `json:"age_verified"`
	AddressVerified   bool      `json:"address_verified"`
	AgeCommitment     string    `json:"age_commitment"`
	AddressCommitment string    `json:"address_commitment"`
	Anchored          bool      `json:"anchored"`
	CompletedAt       time.Time `json:"completed_at"`
}
