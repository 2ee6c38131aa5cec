// Package crypto encrypts external connection credentials at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when the encryption key is empty.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrDecryptionFailed is returned when decryption fails under every
	// configured key (invalid ciphertext or wrong key).
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
)

// SecretBox provides AES-256-GCM authenticated encryption for connection
// secrets. It holds a primary key used for all new ciphertext and an optional
// retired key so decryption keeps working across a key rotation: rotate by
// moving the old key to the retired slot, then re-encrypt records lazily as
// they are next written.
type SecretBox struct {
	primary cipher.AEAD
	retired cipher.AEAD // nil when no rotation is in progress
}

// NewSecretBox creates a SecretBox from key strings. retiredKey may be empty.
// A key can be:
//   - A base64-encoded 32-byte key (e.g., from: openssl rand -base64 32)
//   - Any passphrase (hashed to 32 bytes with SHA-256)
func NewSecretBox(primaryKey, retiredKey string) (*SecretBox, error) {
	primary, err := newAEAD(primaryKey)
	if err != nil {
		return nil, err
	}

	box := &SecretBox{primary: primary}

	if retiredKey != "" {
		retired, err := newAEAD(retiredKey)
		if err != nil {
			return nil, fmt.Errorf("retired key: %w", err)
		}
		box.retired = retired
	}

	return box, nil
}

func newAEAD(keyInput string) (cipher.AEAD, error) {
	if keyInput == "" {
		return nil, ErrInvalidKey
	}

	var key []byte

	// A valid base64 string decoding to exactly 32 bytes is used directly;
	// anything else is treated as a passphrase and hashed.
	decoded, err := base64.StdEncoding.DecodeString(keyInput)
	if err == nil && len(decoded) == 32 {
		key = decoded
	} else {
		hash := sha256.Sum256([]byte(keyInput))
		key = hash[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

// Encrypt encrypts plaintext under the primary key and returns
// base64(nonce || ciphertext || tag). Empty strings are returned as-is.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, b.primary.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := b.primary.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64(nonce || ciphertext || tag) with the primary key,
// falling back to the retired key if one is configured. Empty strings are
// returned as-is.
func (b *SecretBox) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrDecryptionFailed)
	}

	plaintext, err := open(b.primary, data)
	if err == nil {
		return plaintext, nil
	}

	if b.retired != nil {
		if plaintext, retryErr := open(b.retired, data); retryErr == nil {
			return plaintext, nil
		}
	}

	return "", err
}

func open(gcm cipher.AEAD, data []byte) (string, error) {
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize+gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}

	return string(plaintext), nil
}
