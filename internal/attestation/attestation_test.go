package attestation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/requestcontext"
)

func pinnedCtx(t *testing.T, now time.Time) context.Context {
	t.Helper()
	return requestcontext.WithTime(context.Background(), now)
}

func TestGenerateAgeCommitment_Boundaries(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	t.Run("exactly 18 today is verified", func(t *testing.T) {
		dob := time.Date(2006, 5, 15, 0, 0, 0, 0, time.UTC)
		res, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 18)
		require.NoError(t, err)
		assert.True(t, res.Verified)
	})

	t.Run("18 tomorrow is not verified", func(t *testing.T) {
		dob := time.Date(2006, 5, 16, 0, 0, 0, 0, time.UTC)
		res, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 18)
		require.NoError(t, err)
		assert.False(t, res.Verified)
	})

	t.Run("birthday was yesterday", func(t *testing.T) {
		dob := time.Date(2006, 5, 14, 0, 0, 0, 0, time.UTC)
		res, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 18)
		require.NoError(t, err)
		assert.True(t, res.Verified)
	})

	t.Run("Feb 29 birth date in a non-leap year resolves to Mar 1", func(t *testing.T) {
		dob := time.Date(2004, 2, 29, 0, 0, 0, 0, time.UTC)

		// Feb 28, 2023: the Mar-1 birthday has not arrived, still 18.
		res, err := GenerateAgeCommitment(pinnedCtx(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)), dob, 19)
		require.NoError(t, err)
		assert.False(t, res.Verified)

		// Mar 1, 2023: now 19.
		res, err = GenerateAgeCommitment(pinnedCtx(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)), dob, 19)
		require.NoError(t, err)
		assert.True(t, res.Verified)
	})

	t.Run("zero threshold defaults to 18", func(t *testing.T) {
		dob := time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC)
		res, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 0)
		require.NoError(t, err)
		assert.False(t, res.Verified) // 17 years old at the pinned date
	})
}

func TestGenerateAgeCommitment_Commitment(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	dob := time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)

	t.Run("stable for identical inputs", func(t *testing.T) {
		r1, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 18)
		require.NoError(t, err)
		r2, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 18)
		require.NoError(t, err)
		assert.Equal(t, r1.Commitment, r2.Commitment)
	})

	t.Run("threshold is part of the commitment", func(t *testing.T) {
		r18, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 18)
		require.NoError(t, err)
		r21, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 21)
		require.NoError(t, err)
		assert.NotEqual(t, r18.Commitment, r21.Commitment)
	})

	t.Run("payload carries the policy id and no raw birth date", func(t *testing.T) {
		res, err := GenerateAgeCommitment(pinnedCtx(t, now), dob, 18)
		require.NoError(t, err)
		assert.Equal(t, AgePolicyID, res.Payload["policy_id"])
		assert.NotContains(t, res.Payload, "date_of_birth")
		assert.NotEmpty(t, res.Payload["birth_date_commitment"])
	})
}

func TestGenerateAgeCommitment_InvalidInput(t *testing.T) {
	ctx := context.Background()

	_, err := GenerateAgeCommitment(ctx, time.Time{}, 18)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = GenerateAgeCommitment(ctx, time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC), -1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestGenerateAddressCommitment(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	addr := Address{
		Line1:      "1 Main St",
		City:       "Springfield",
		Region:     "IL",
		PostalCode: "62701",
		Country:    "US",
	}

	t.Run("match result passes through untouched", func(t *testing.T) {
		res, err := GenerateAddressCommitment(pinnedCtx(t, now), addr, MatchResult{Verified: true, Confidence: 0.97})
		require.NoError(t, err)
		assert.True(t, res.Verified)
		assert.Equal(t, 0.97, res.MatchConfidence)
	})

	t.Run("failed match passes through too", func(t *testing.T) {
		res, err := GenerateAddressCommitment(pinnedCtx(t, now), addr, MatchResult{Verified: false, Confidence: 0.12})
		require.NoError(t, err)
		assert.False(t, res.Verified)
		assert.Equal(t, 0.12, res.MatchConfidence)
	})

	t.Run("payload embeds an address commitment not the address", func(t *testing.T) {
		res, err := GenerateAddressCommitment(pinnedCtx(t, now), addr, MatchResult{Verified: true, Confidence: 0.5})
		require.NoError(t, err)
		assert.Equal(t, AddressPolicyID, res.Payload["policy_id"])
		assert.NotEmpty(t, res.Payload["verified_address_commitment"])
		assert.NotContains(t, res.Payload, "line1")
	})

	t.Run("confidence outside range is rejected", func(t *testing.T) {
		_, err := GenerateAddressCommitment(pinnedCtx(t, now), addr, MatchResult{Verified: true, Confidence: 1.5})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("empty address is rejected", func(t *testing.T) {
		_, err := GenerateAddressCommitment(pinnedCtx(t, now), Address{}, MatchResult{Verified: true, Confidence: 0.9})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestVerifyFromCredential(t *testing.T) {
	t.Run("age claim projects", func(t *testing.T) {
		ok, err := VerifyAgeFromCredential(map[string]any{ClaimAgeMeetsThreshold: true})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = VerifyAgeFromCredential(map[string]any{ClaimAgeMeetsThreshold: false})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("address claim projects", func(t *testing.T) {
		ok, err := VerifyAddressFromCredential(map[string]any{ClaimAddressVerified: true})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing claim is malformed", func(t *testing.T) {
		_, err := VerifyAgeFromCredential(map[string]any{"unrelated": 1})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("non-boolean claim is malformed", func(t *testing.T) {
		_, err := VerifyAddressFromCredential(map[string]any{ClaimAddressVerified: "yes"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("nil credential is malformed", func(t *testing.T) {
		_, err := VerifyAgeFromCredential(nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
