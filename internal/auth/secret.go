package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// APIKeyPrefix marks public API key values.
	APIKeyPrefix = "sk_"

	apiKeyBytes    = 24
	apiSecretBytes = 32
)

var ErrEmptyPepper = errors.New("api key pepper must not be empty")

// SecretHasher computes deterministic keyed hashes of API key secrets so
// they can be stored and compared for equality. The pepper is a
// per-deployment key kept outside the database.
type SecretHasher struct {
	pepper []byte
}

func NewSecretHasher(pepper string) (*SecretHasher, error) {
	if pepper == "" {
		return nil, ErrEmptyPepper
	}
	return &SecretHasher{pepper: []byte(pepper)}, nil
}

// Hash returns the hex HMAC-SHA256 of secret.
func (h *SecretHasher) Hash(secret string) string {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func (h *SecretHasher) Verify(secret, hash string) bool {
	return hmac.Equal([]byte(h.Hash(secret)), []byte(hash))
}

// GenerateAPIKey returns a public key value: the prefix followed by 24 random bytes in hex.
func GenerateAPIKey() (string, error) {
	raw, err := randomHex(apiKeyBytes)
	if err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return APIKeyPrefix + raw, nil
}

// GenerateAPISecret returns 32 random bytes in hex.
func GenerateAPISecret() (string, error) {
	raw, err := randomHex(apiSecretBytes)
	if err != nil {
		return "", fmt.Errorf("generate api secret: %w", err)
	}
	return raw, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
