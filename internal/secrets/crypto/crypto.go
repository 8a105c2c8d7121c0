// Package crypto seals and opens the per-subject secret payloads with
// XChaCha20-Poly1305. Keys are held in a keyring keyed by key ID so records
// can name the key that sealed them and key rotation stays a data migration,
// not a code change.
package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"attestgate/pkg/platform/sentinel"
)

// Keyring holds the symmetric keys available for sealing and opening secret
// payloads. Immutable after construction; safe for concurrent use.
type Keyring struct {
	keys     map[string][]byte
	activeID string
}

// NewKeyring builds a keyring from key-ID → 32-byte-key material. activeID
// names the key used for new seals; every listed key can still open.
func NewKeyring(keys map[string][]byte, activeID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("keyring requires at least one key")
	}
	for id, key := range keys {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key %s: expected %d bytes, got %d", id, chacha20poly1305.KeySize, len(key))
		}
	}
	if _, ok := keys[activeID]; !ok {
		return nil, fmt.Errorf("active key %s not present in keyring", activeID)
	}

	copied := make(map[string][]byte, len(keys))
	for id, key := range keys {
		k := make([]byte, len(key))
		copy(k, key)
		copied[id] = k
	}
	return &Keyring{keys: copied, activeID: activeID}, nil
}

// ActiveKeyID returns the key ID used for new seals.
func (r *Keyring) ActiveKeyID() string { return r.activeID }

// Seal encrypts plaintext under the active key. The random nonce is
// prepended to the box so Open needs nothing beyond the key ID a record
// already carries.
func (r *Keyring) Seal(plaintext []byte) (keyID string, box []byte, err error) {
	aead, err := chacha20poly1305.NewX(r.keys[r.activeID])
	if err != nil {
		return "", nil, fmt.Errorf("init aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, fmt.Errorf("generate nonce: %w", err)
	}

	box = aead.Seal(nonce, nonce, plaintext, nil)
	return r.activeID, box, nil
}

// Open decrypts a box sealed under the named key.
//
// Errors: sentinel.ErrNotFound when the key ID is unknown; a wrapped error
// when authentication fails (tampered or truncated box).
func (r *Keyring) Open(keyID string, box []byte) ([]byte, error) {
	key, ok := r.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("key %s: %w", keyID, sentinel.ErrNotFound)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	if len(box) < aead.NonceSize() {
		return nil, fmt.Errorf("box shorter than nonce")
	}

	nonce, ciphertext := box[:aead.NonceSize()], box[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open box: %w", err)
	}
	return plaintext, nil
}

// GenerateKey returns fresh 32-byte key material for provisioning.
func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}
