// Package commitment computes deterministic commitment hashes over claim
// payloads. A commitment binds a claim to its inputs without revealing them:
// callers only ever pass thresholds, booleans, timestamps, and pre-hashed
// identity values, never raw PII.
//
// Determinism is the contract: two logically equal payloads, however
// constructed, must yield byte-identical digests. Map iteration order in Go
// is randomized, so the encoder canonicalizes by sorting keys recursively
// before hashing.
package commitment

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	dErrors "attestgate/pkg/domain-errors"
)

// Hash canonicalizes the payload and returns the hex-encoded SHA-256 digest.
// The digest is opaque to all callers; nothing downstream decodes it.
//
// Pure and safe for concurrent use.
//
// Errors: CodeInvalidInput when the payload is nil or empty, or when a value
// cannot be serialized to canonical form (unsupported type, NaN, Inf).
func Hash(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "commitment payload is empty")
	}

	var buf bytes.Buffer
	if err := encodeMap(&buf, payload); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "commitment payload is not canonicalizable")
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// HashValue commits a single named value. Used for the inner commitments
// (birth date, verified address) that are embedded inside a larger payload.
func HashValue(key string, value any) (string, error) {
	return Hash(map[string]any{key: value})
}

func encodeMap(buf *bytes.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodeString(buf, k)
		buf.WriteByte(':')
		if err := encodeValue(buf, m[k]); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		encodeString(buf, val)
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float32:
		return encodeFloat(buf, float64(val))
	case float64:
		return encodeFloat(buf, val)
	case time.Time:
		// Normalize to UTC so the same instant hashes identically regardless
		// of the zone it was constructed in.
		encodeString(buf, val.UTC().Format(time.RFC3339Nano))
	case map[string]any:
		return encodeMap(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite float %v", f)
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteString(strconv.Quote(s))
}
