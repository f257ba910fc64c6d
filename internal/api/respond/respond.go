// Package respond writes JSON bodies and the error envelope shared by
// handlers and middleware:
//
//	{"error": {"code": "INVALID_TOKEN", "message": "invalid or expired token"}}
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/tenantgate/internal/service"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

var (
	ErrInvalidBody = errors.New("invalid request body")
	ErrInvalidID   = errors.New("invalid id")
	ErrRateLimited = errors.New("rate limit exceeded")
)

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type mapping struct {
	status int
	code   string
}

var mappings = []struct {
	err error
	mapping
}{
	{service.ErrTenantNotFound, mapping{http.StatusBadRequest, "TENANT_NOT_FOUND"}},
	{service.ErrTenantSlugExists, mapping{http.StatusConflict, "TENANT_SLUG_EXISTS"}},
	{service.ErrEmailExists, mapping{http.StatusConflict, "EMAIL_EXISTS"}},
	{service.ErrInvalidCredentials, mapping{http.StatusUnauthorized, "INVALID_CREDENTIALS"}},
	{service.ErrUserInactive, mapping{http.StatusUnauthorized, "USER_INACTIVE"}},
	{service.ErrInvalidToken, mapping{http.StatusUnauthorized, "INVALID_TOKEN"}},
	{service.ErrUserNotFound, mapping{http.StatusUnauthorized, "USER_NOT_FOUND"}},
	{service.ErrMissingTenantContext, mapping{http.StatusBadRequest, "MISSING_TENANT_CONTEXT"}},
	{service.ErrQuotaExceeded, mapping{http.StatusBadRequest, "QUOTA_EXCEEDED"}},
	{service.ErrDuplicateKey, mapping{http.StatusBadRequest, "DUPLICATE_KEY"}},
	{service.ErrAPIKeyNameExists, mapping{http.StatusConflict, "API_KEY_NAME_EXISTS"}},
	{service.ErrAPIKeyNotFound, mapping{http.StatusNotFound, "API_KEY_NOT_FOUND"}},
	{service.ErrMissingAPIKeyCredential, mapping{http.StatusUnauthorized, "MISSING_API_KEY_CREDENTIAL"}},
	{service.ErrInvalidAPIKeyOrSecret, mapping{http.StatusUnauthorized, "INVALID_API_KEY_OR_SECRET"}},
	{service.ErrMissingCredentials, mapping{http.StatusUnauthorized, "MISSING_CREDENTIALS"}},
	{service.ErrCredentialNotAccepted, mapping{http.StatusUnauthorized, "CREDENTIAL_NOT_ACCEPTED"}},
	{service.ErrInsufficientScope, mapping{http.StatusForbidden, "INSUFFICIENT_SCOPE"}},
	{service.ErrAdminTokenInvalid, mapping{http.StatusUnauthorized, "ADMIN_TOKEN_INVALID"}},
	{ErrInvalidBody, mapping{http.StatusBadRequest, "INVALID_REQUEST"}},
	{ErrInvalidID, mapping{http.StatusBadRequest, "INVALID_ID"}},
	{ErrRateLimited, mapping{http.StatusTooManyRequests, "RATE_LIMITED"}},
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes the envelope for err. Known failures map to a 4xx status and
// a stable code; anything else is logged and reported as INTERNAL_ERROR
// without leaking the cause.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		JSON(w, http.StatusBadRequest, ErrorBody{Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Details: verrs,
		}})
		return
	}

	for _, m := range mappings {
		if errors.Is(err, m.err) {
			JSON(w, m.status, ErrorBody{Error: ErrorDetail{Code: m.code, Message: m.err.Error()}})
			return
		}
	}

	if logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	JSON(w, http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}})
}
