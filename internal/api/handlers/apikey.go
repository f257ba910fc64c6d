package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

type APIKeyHandler struct {
	svc    *service.APIKeyService
	logger *zap.Logger
	now    func() time.Time
}

func NewAPIKeyHandler(svc *service.APIKeyService, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{svc: svc, logger: logger, now: time.Now}
}

type createAPIKeyRequest struct {
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (r createAPIKeyRequest) validate(now time.Time) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(3, 255)),
		validation.Field(&r.Scopes, validation.By(validScopes)),
		validation.Field(&r.ExpiresAt, validation.By(inFuture(now))),
	)
}

type updateAPIKeyRequest struct {
	Name      *string    `json:"name"`
	Scopes    *[]string  `json:"scopes"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (r updateAPIKeyRequest) validate(now time.Time) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(3, 255)),
		validation.Field(&r.Scopes, validation.By(validScopes)),
		validation.Field(&r.ExpiresAt, validation.By(inFuture(now))),
	)
}

func validScopes(value any) error {
	var scopes []string
	switch v := value.(type) {
	case []string:
		scopes = v
	case *[]string:
		if v == nil {
			return nil
		}
		scopes = *v
	default:
		return nil
	}
	for _, s := range scopes {
		if strings.TrimSpace(s) == "" || len(s) > 100 || strings.ContainsAny(s, " \t\n") {
			return errors.New("scopes must be non-empty tokens of at most 100 characters")
		}
	}
	return nil
}

func inFuture(now time.Time) validation.RuleFunc {
	return func(value any) error {
		t, ok := value.(*time.Time)
		if !ok || t == nil {
			return nil
		}
		if !t.After(now) {
			return errors.New("must be in the future")
		}
		return nil
	}
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	var req createAPIKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.validate(h.now()); err != nil {
		writeError(w, h.logger, err)
		return
	}

	key, err := h.svc.Create(r.Context(), id.TenantID, service.CreateAPIKeyInput{
		Name:      req.Name,
		Scopes:    req.Scopes,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	keys, err := h.svc.List(r.Context(), id.TenantID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if keys == nil {
		keys = []domain.APIKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	keyID, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	key, err := h.svc.Get(r.Context(), id.TenantID, keyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *APIKeyHandler) Update(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	keyID, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req updateAPIKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.validate(h.now()); err != nil {
		writeError(w, h.logger, err)
		return
	}

	key, err := h.svc.Update(r.Context(), id.TenantID, keyID, service.UpdateAPIKeyInput{
		Name:      req.Name,
		Scopes:    req.Scopes,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *APIKeyHandler) Rotate(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	keyID, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	key, err := h.svc.Rotate(r.Context(), id.TenantID, keyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	keyID, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.Revoke(r.Context(), id.TenantID, keyID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	keyID, err := idParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id.TenantID, keyID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
