package models

import (
	"time"

	"attestgate/pkg/domain"
)

// SecretRecord is the one encrypted row kept per verified subject. Both
// payload columns are sealed with the key named by EncryptionKeyID before
// they reach the store; nothing here is ever persisted in plaintext.
//
// Lifecycle: insert-only with a uniqueness expectation on SubjectID,
// destroyed only by an explicit erasure request, never by TTL.
type SecretRecord struct {
	SubjectID domain.SubjectID

	// EncryptedIdentityAttributes seals the identity attributes (date of
	// birth, normalized address, document identifiers) captured at
	// verification time.
	EncryptedIdentityAttributes []byte

	// EncryptedCredentialBundle seals the claim bundle the credential
	// projections read (age_meets_threshold, address_verified, commitments).
	EncryptedCredentialBundle []byte

	EncryptionKeyID        string
	VerificationSessionRef string
	CreatedAt              time.Time
}
