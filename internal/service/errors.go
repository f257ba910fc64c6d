package service

import "errors"

var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrTenantSlugExists = errors.New("tenant with this slug already exists")

	ErrEmailExists        = errors.New("email already registered for this tenant")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is not active")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")

	ErrQuotaExceeded         = errors.New("maximum number of active api keys reached")
	ErrDuplicateKey          = errors.New("generated api key collided with an existing key")
	ErrAPIKeyNameExists      = errors.New("api key with this name already exists")
	ErrAPIKeyNotFound        = errors.New("api key not found")
	ErrInvalidAPIKeyOrSecret = errors.New("invalid api key or secret")

	ErrMissingTenantContext    = errors.New("tenant context required: X-Tenant-ID header or tenant subdomain")
	ErrMissingAPIKeyCredential = errors.New("both X-API-Key and X-API-Secret headers are required")
	ErrMissingCredentials      = errors.New("authentication required")
	ErrInsufficientScope       = errors.New("api key lacks the required scope")
	ErrCredentialNotAccepted   = errors.New("credential type not accepted for this endpoint")
	ErrAdminTokenInvalid       = errors.New("valid X-Admin-Token header required")
)
