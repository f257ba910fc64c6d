package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/tenantgate/internal/api/respond"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"go.uber.org/zap"
)

const TenantHeader = "X-Tenant-ID"

// TenantHandlerFunc receives the resolved tenant reference as an argument.
type TenantHandlerFunc func(w http.ResponseWriter, r *http.Request, tenantRef string)

// ResolveTenant returns the tenant reference for r: the X-Tenant-ID header
// when present, otherwise the leftmost host label if the host has at least
// three labels ("acme.app.example.com" -> "acme"). It does not check that
// the tenant exists.
func ResolveTenant(r *http.Request) (string, error) {
	if ref := strings.TrimSpace(r.Header.Get(TenantHeader)); ref != "" {
		return ref, nil
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	// IP literals have dots but no subdomain.
	if net.ParseIP(host) != nil {
		return "", service.ErrMissingTenantContext
	}
	labels := strings.Split(host, ".")
	if len(labels) >= 3 && labels[0] != "" {
		return labels[0], nil
	}
	return "", service.ErrMissingTenantContext
}

// WithTenant rejects requests without tenant context and hands the
// reference to next.
func WithTenant(logger *zap.Logger, next TenantHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := ResolveTenant(r)
		if err != nil {
			respond.Error(w, logger, err)
			return
		}
		next(w, r, ref)
	}
}

// WithOptionalTenant passes an empty reference when the request carries no
// tenant context, for handlers that also accept a tenant id in the body.
func WithOptionalTenant(next TenantHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, _ := ResolveTenant(r)
		next(w, r, ref)
	}
}
