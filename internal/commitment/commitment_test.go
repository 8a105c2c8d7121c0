package commitment

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attestgate/pkg/domain-errors"
)

func TestHash_Determinism(t *testing.T) {
	t.Run("independently constructed equal payloads hash equal", func(t *testing.T) {
		p1 := map[string]any{
			"age_threshold":          18,
			"age_meets_threshold":    true,
			"birth_date_commitment":  "ab12",
			"verification_timestamp": time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC),
			"policy_id":              "age-verification-v1",
		}
		// Same fields, inserted in a different order.
		p2 := map[string]any{}
		p2["policy_id"] = "age-verification-v1"
		p2["verification_timestamp"] = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
		p2["birth_date_commitment"] = "ab12"
		p2["age_meets_threshold"] = true
		p2["age_threshold"] = 18

		h1, err := Hash(p1)
		require.NoError(t, err)
		h2, err := Hash(p2)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("nested maps canonicalize recursively", func(t *testing.T) {
		h1, err := Hash(map[string]any{"outer": map[string]any{"a": 1, "b": 2}})
		require.NoError(t, err)
		h2, err := Hash(map[string]any{"outer": map[string]any{"b": 2, "a": 1}})
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("timestamps hash by instant not by zone", func(t *testing.T) {
		utc := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
		offset := utc.In(time.FixedZone("UTC+2", 2*3600))

		h1, err := Hash(map[string]any{"ts": utc})
		require.NoError(t, err)
		h2, err := Hash(map[string]any{"ts": offset})
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})
}

func TestHash_Avalanche(t *testing.T) {
	base := map[string]any{
		"age_threshold":       18,
		"age_meets_threshold": true,
		"policy_id":           "age-verification-v1",
	}
	baseHash, err := Hash(base)
	require.NoError(t, err)

	t.Run("changing one field changes the digest", func(t *testing.T) {
		changed := map[string]any{
			"age_threshold":       19,
			"age_meets_threshold": true,
			"policy_id":           "age-verification-v1",
		}
		h, err := Hash(changed)
		require.NoError(t, err)
		assert.NotEqual(t, baseHash, h)
	})

	t.Run("removing a field changes the digest", func(t *testing.T) {
		smaller := map[string]any{
			"age_threshold":       18,
			"age_meets_threshold": true,
		}
		h, err := Hash(smaller)
		require.NoError(t, err)
		assert.NotEqual(t, baseHash, h)
	})

	t.Run("type of a value is significant", func(t *testing.T) {
		// "18" the string is a different claim than 18 the integer.
		h, err := Hash(map[string]any{
			"age_threshold":       "18",
			"age_meets_threshold": true,
			"policy_id":           "age-verification-v1",
		})
		require.NoError(t, err)
		assert.NotEqual(t, baseHash, h)
	})
}

func TestHash_InvalidPayload(t *testing.T) {
	t.Run("nil payload", func(t *testing.T) {
		_, err := Hash(nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := Hash(map[string]any{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("unsupported value type", func(t *testing.T) {
		_, err := Hash(map[string]any{"bad": make(chan int)})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("non-finite float", func(t *testing.T) {
		_, err := Hash(map[string]any{"confidence": math.NaN()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestHash_Concurrent(t *testing.T) {
	payload := map[string]any{
		"address_verified": true,
		"match_confidence": 0.97,
		"policy_id":        "address-verification-v1",
	}
	want, err := Hash(payload)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Hash(payload)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestHashValue(t *testing.T) {
	h1, err := HashValue("date", "1990-05-15")
	require.NoError(t, err)
	h2, err := HashValue("date", "1990-05-15")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := HashValue("date", "1990-05-16")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
