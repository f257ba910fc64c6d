package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/tenantgate/internal/api/respond"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"go.uber.org/zap"
)

const (
	APIKeyHeader     = "X-API-Key"
	APISecretHeader  = "X-API-Secret"
	AdminTokenHeader = "X-Admin-Token"
)

// IdentityHandlerFunc receives the authenticated caller as an argument.
type IdentityHandlerFunc func(w http.ResponseWriter, r *http.Request, id domain.Identity)

type Authenticator interface {
	Authenticate(ctx context.Context, cred domain.Credential) (*domain.Identity, error)
}

// ExtractCredential reads the credential presented on r. A bearer token
// wins over API key headers when both are sent.
func ExtractCredential(r *http.Request) (domain.Credential, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return domain.BearerCredential{Token: strings.TrimSpace(parts[1])}, nil
		}
		// A malformed Authorization header is a failed bearer attempt.
		if r.Header.Get(APIKeyHeader) == "" && r.Header.Get(APISecretHeader) == "" {
			return nil, service.ErrInvalidToken
		}
	}

	key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
	secret := strings.TrimSpace(r.Header.Get(APISecretHeader))
	switch {
	case key == "" && secret == "":
		return nil, service.ErrMissingCredentials
	case key == "" || secret == "":
		return nil, service.ErrMissingAPIKeyCredential
	}
	return domain.APIKeyCredential{Key: key, Secret: secret}, nil
}

// Authenticate resolves the caller and passes the Identity to next. When
// methods are given, credentials of any other kind are refused before they
// are checked.
func Authenticate(auth Authenticator, logger *zap.Logger, methods ...domain.AuthMethod) func(IdentityHandlerFunc) http.HandlerFunc {
	return func(next IdentityHandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cred, err := ExtractCredential(r)
			if err != nil {
				respond.Error(w, logger, err)
				return
			}
			if !accepts(methods, cred.Method()) {
				respond.Error(w, logger, service.ErrCredentialNotAccepted)
				return
			}

			id, err := auth.Authenticate(r.Context(), cred)
			if err != nil {
				respond.Error(w, logger, err)
				return
			}
			next(w, r, *id)
		}
	}
}

func accepts(methods []domain.AuthMethod, m domain.AuthMethod) bool {
	if len(methods) == 0 {
		return true
	}
	for _, allowed := range methods {
		if allowed == m {
			return true
		}
	}
	return false
}

// RequireScope lets user sessions through and requires API key callers to
// hold scope.
func RequireScope(scope string, logger *zap.Logger, next IdentityHandlerFunc) IdentityHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, id domain.Identity) {
		if !id.Allows(scope) {
			respond.Error(w, logger, service.ErrInsufficientScope)
			return
		}
		next(w, r, id)
	}
}

// AdminToken guards bootstrap endpoints. An empty token disables the check.
func AdminToken(token string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				got := r.Header.Get(AdminTokenHeader)
				if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
					respond.Error(w, logger, service.ErrAdminTokenInvalid)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
