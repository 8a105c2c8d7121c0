// Package attestation turns decrypted identity attributes and externally
// computed policy results into verification outcomes plus deterministic
// commitments.
//
// The split matters: computing the real-world claim (address matching,
// document checks) is policy-heavy and lives with external collaborators;
// this package only asserts and commits results. That keeps everything here
// pure, deterministic, and testable without I/O.
package attestation

import (
	"context"
	"time"

	"attestgate/internal/commitment"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/requestcontext"
)

// Policy identifiers embedded in commitment payloads. Changing a policy's
// semantics requires a new identifier, never a silent redefinition: the
// policy ID is part of the hashed payload.
const (
	AgePolicyID     = "age-verification-v1"
	AddressPolicyID = "address-verification-v1"
)

// DefaultAgeThreshold applies when a caller does not specify one.
const DefaultAgeThreshold = 18

// Address is a normalized postal address as produced by the external
// matching collaborator. Ephemeral: committed, never persisted in plaintext.
type Address struct {
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
}

// MatchResult is the outcome of external address matching, passed through
// and committed as-is.
type MatchResult struct {
	Verified   bool
	Confidence float64
}

// AgeCommitmentPayload is the canonical claim content hashed into an age
// commitment. Typed rather than an open map so the compiler covers field
// presence.
type AgeCommitmentPayload struct {
	AgeThreshold          int
	AgeMeetsThreshold     bool
	BirthDateCommitment   string
	VerificationTimestamp time.Time
	PolicyID              string
}

// Canonical returns the payload as the canonical mapping fed to the hash
// engine and embedded into compliance events.
func (p AgeCommitmentPayload) Canonical() map[string]any {
	return map[string]any{
		"age_threshold":          p.AgeThreshold,
		"age_meets_threshold":    p.AgeMeetsThreshold,
		"birth_date_commitment":  p.BirthDateCommitment,
		"verification_timestamp": p.VerificationTimestamp,
		"policy_id":              p.PolicyID,
	}
}

// AddressCommitmentPayload is the canonical claim content hashed into an
// address commitment.
type AddressCommitmentPayload struct {
	AddressVerified           bool
	MatchConfidence           float64
	VerifiedAddressCommitment string
	VerificationTimestamp     time.Time
	PolicyID                  string
}

func (p AddressCommitmentPayload) Canonical() map[string]any {
	return map[string]any{
		"address_verified":            p.AddressVerified,
		"match_confidence":            p.MatchConfidence,
		"verified_address_commitment": p.VerifiedAddressCommitment,
		"verification_timestamp":      p.VerificationTimestamp,
		"policy_id":                   p.PolicyID,
	}
}

// Result is an immutable attestation outcome: the asserted boolean plus the
// commitment binding it to its inputs. MatchConfidence is populated for
// address attestations only.
type Result struct {
	Verified        bool
	MatchConfidence float64
	Commitment      string
	Payload         map[string]any
	GeneratedAt     time.Time
}

// GenerateAgeCommitment computes whether the subject meets the age threshold
// and commits the claim. The current date comes from the request context so
// callers (and boundary tests) control "today". A zero threshold means
// DefaultAgeThreshold.
//
// Errors: CodeInvalidInput for a zero birth date or negative threshold.
func GenerateAgeCommitment(ctx context.Context, dateOfBirth time.Time, threshold int) (Result, error) {
	if dateOfBirth.IsZero() {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "date of birth is required")
	}
	if threshold < 0 {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "age threshold cannot be negative")
	}
	if threshold == 0 {
		threshold = DefaultAgeThreshold
	}

	now := requestcontext.Now(ctx)
	verified := ageOn(dateOfBirth, now) >= threshold

	birthCommitment, err := commitment.HashValue("date", dateOfBirth.Format(time.DateOnly))
	if err != nil {
		return Result{}, err
	}

	payload := AgeCommitmentPayload{
		AgeThreshold:          threshold,
		AgeMeetsThreshold:     verified,
		BirthDateCommitment:   birthCommitment,
		VerificationTimestamp: now,
		PolicyID:              AgePolicyID,
	}

	canonical := payload.Canonical()
	digest, err := commitment.Hash(canonical)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Verified:    verified,
		Commitment:  digest,
		Payload:     canonical,
		GeneratedAt: now,
	}, nil
}

// GenerateAddressCommitment commits an externally computed address match
// result. No matching happens here; the verified flag and confidence pass
// through untouched.
//
// Errors: CodeInvalidInput when the address is empty or the confidence is
// outside [0, 1].
func GenerateAddressCommitment(ctx context.Context, verifiedAddress Address, match MatchResult) (Result, error) {
	if verifiedAddress == (Address{}) {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "verified address is required")
	}
	if match.Confidence < 0 || match.Confidence > 1 {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "match confidence must be within [0, 1]")
	}

	now := requestcontext.Now(ctx)

	addressCommitment, err := commitment.Hash(map[string]any{
		"line1":       verifiedAddress.Line1,
		"line2":       verifiedAddress.Line2,
		"city":        verifiedAddress.City,
		"region":      verifiedAddress.Region,
		"postal_code": verifiedAddress.PostalCode,
		"country":     verifiedAddress.Country,
	})
	if err != nil {
		return Result{}, err
	}

	payload := AddressCommitmentPayload{
		AddressVerified:           match.Verified,
		MatchConfidence:           match.Confidence,
		VerifiedAddressCommitment: addressCommitment,
		VerificationTimestamp:     now,
		PolicyID:                  AddressPolicyID,
	}

	canonical := payload.Canonical()
	digest, err := commitment.Hash(canonical)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Verified:        match.Verified,
		MatchConfidence: match.Confidence,
		Commitment:      digest,
		Payload:         canonical,
		GeneratedAt:     now,
	}, nil
}

// ageOn computes full calendar years between birth and now: subtract years,
// then decrement when the (month, day) of now is still ahead of the
// birthday. A Feb 29 birthday in a non-leap year resolves to Mar 1.
func ageOn(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
