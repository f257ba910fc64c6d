package handlers

import (
	"net/http"
	"regexp"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type TenantHandler struct {
	svc    *service.TenantService
	logger *zap.Logger
}

func NewTenantHandler(svc *service.TenantService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{svc: svc, logger: logger}
}

type createTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (r createTenantRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Slug, validation.Required, validation.Length(2, 63),
			validation.Match(slugPattern).Error("must be lowercase alphanumeric with hyphens")),
	)
}

// tenantView is the public part of a tenant, safe to show before login.
type tenantView struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Slug   string              `json:"slug"`
	Status domain.TenantStatus `json:"status"`
}

func newTenantView(t *domain.Tenant) tenantView {
	return tenantView{ID: t.ID.String(), Name: t.Name, Slug: t.Slug, Status: t.Status}
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tenant, err := h.svc.Create(r.Context(), req.Name, req.Slug)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTenantView(tenant))
}

// Current returns the tenant named by the request's tenant context, letting
// clients on a tenant subdomain discover the tenant id.
func (h *TenantHandler) Current(w http.ResponseWriter, r *http.Request, tenantRef string) {
	id, err := h.svc.Resolve(r.Context(), tenantRef)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	tenant, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTenantView(tenant))
}
