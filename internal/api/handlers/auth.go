package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthHandler struct {
	creds   *service.CredentialService
	tenants *service.TenantService
	logger  *zap.Logger
}

func NewAuthHandler(creds *service.CredentialService, tenants *service.TenantService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{creds: creds, tenants: tenants, logger: logger}
}

type registerRequest struct {
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		// bcrypt ignores input past 72 bytes.
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
	)
}

type loginRequest struct {
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	TenantID     string `json:"tenantId"`
}

func (r refreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type meResponse struct {
	UserID   uuid.UUID `json:"userId"`
	Email    string    `json:"email"`
	TenantID uuid.UUID `json:"tenantId"`
}

// tenantID picks the body tenant id, falling back to the request's tenant
// context, and resolves slugs to ids.
func (h *AuthHandler) tenantID(ctx context.Context, bodyRef, contextRef string) (uuid.UUID, error) {
	ref := bodyRef
	if ref == "" {
		ref = contextRef
	}
	if ref == "" {
		return uuid.Nil, service.ErrMissingTenantContext
	}
	return h.tenants.Resolve(ctx, ref)
}

// loginTenantID is tenantID for login and refresh. An unknown tenant is
// replaced by an id no tenant has, so those calls fail exactly as they do
// for an unknown tenant id and do not reveal which slugs exist.
func (h *AuthHandler) loginTenantID(ctx context.Context, bodyRef, contextRef string) (uuid.UUID, error) {
	id, err := h.tenantID(ctx, bodyRef, contextRef)
	if errors.Is(err, service.ErrTenantNotFound) {
		return uuid.New(), nil
	}
	return id, err
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request, tenantRef string) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tenantID, err := h.tenantID(r.Context(), req.TenantID, tenantRef)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.creds.Register(r.Context(), service.RegisterInput{
		TenantID: tenantID,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writePair(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, tenantRef string) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tenantID, err := h.loginTenantID(r.Context(), req.TenantID, tenantRef)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.creds.Login(r.Context(), service.LoginInput{
		TenantID: tenantID,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writePair(w, http.StatusOK, user)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request, tenantRef string) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tenantID, err := h.loginTenantID(r.Context(), req.TenantID, tenantRef)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.creds.Refresh(r.Context(), service.RefreshInput{
		RefreshToken: req.RefreshToken,
		TenantID:     tenantID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writePair(w, http.StatusOK, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, id domain.Identity) {
	writeJSON(w, http.StatusOK, meResponse{
		UserID:   id.UserID,
		Email:    id.Email,
		TenantID: id.TenantID,
	})
}

func (h *AuthHandler) writePair(w http.ResponseWriter, status int, user *domain.User) {
	pair, err := h.creds.IssueTokenPair(user)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, status, pair)
}
