package domain

import (
	"github.com/google/uuid"
)

type AuthMethod string

const (
	AuthMethodJWT    AuthMethod = "jwt"
	AuthMethodAPIKey AuthMethod = "api-key"
)

// Identity is the normalized result of authenticating a request,
// whichever credential was presented.
type Identity struct {
	UserID   uuid.UUID  `json:"userId"`
	TenantID uuid.UUID  `json:"tenantId"`
	Email    string     `json:"email,omitempty"`
	Scopes   []string   `json:"scopes,omitempty"`
	Method   AuthMethod `json:"authMethod"`
	APIKeyID *uuid.UUID `json:"apiKeyId,omitempty"`
}

// Allows reports whether the identity may perform an operation gated by
// scope. User sessions are not scope-limited; API keys must carry the scope.
func (id Identity) Allows(scope string) bool {
	if id.Method != AuthMethodAPIKey {
		return true
	}
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Credential is one of the accepted credential presentations:
// BearerCredential or APIKeyCredential.
type Credential interface {
	Method() AuthMethod
	credential()
}

type BearerCredential struct {
	Token string
}

func (BearerCredential) Method() AuthMethod { return AuthMethodJWT }
func (BearerCredential) credential() {}

type APIKeyCredential struct {
	Key    string
	Secret string
}

func (APIKeyCredential) Method() AuthMethod { return AuthMethodAPIKey }
func (APIKeyCredential) credential() {}
