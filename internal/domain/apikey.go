package domain

import (
	"time"

	"github.com/google/uuid"
)

type APIKeyStatus string

const (
	APIKeyStatusActive  APIKeyStatus = "ACTIVE"
	APIKeyStatusRevoked APIKeyStatus = "REVOKED"
	APIKeyStatusExpired APIKeyStatus = "EXPIRED"
)

// APIKey is a tenant-scoped service credential. Only the keyed hash of the
// secret is kept; the plaintext leaves the process once, on create or rotate.
type APIKey struct {
	ID         uuid.UUID    `json:"id"`
	TenantID   uuid.UUID    `json:"tenantId"`
	Name       string       `json:"name"`
	Key        string       `json:"key"`
	SecretHash string       `json:"-"`
	Status     APIKeyStatus `json:"status"`
	Scopes     []string     `json:"scopes"`
	ExpiresAt  *time.Time   `json:"expiresAt"`
	LastUsedAt *time.Time   `json:"lastUsedAt"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// IsExpired reports whether the key has an expiry at or before now.
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}

// HasScope reports whether scope is granted to the key.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// APIKeyWithSecret is returned by create and rotate only.
type APIKeyWithSecret struct {
	APIKey
	Secret string `json:"secret"`
}

// APIKeyUpdate carries a partial update; nil fields are left untouched.
type APIKeyUpdate struct {
	Name      *string
	Scopes    *[]string
	ExpiresAt *time.Time
}
