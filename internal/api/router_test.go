package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mw "github.com/Harshitk-cp/tenantgate/internal/api/middleware"
	"github.com/Harshitk-cp/tenantgate/internal/api/respond"
	"github.com/Harshitk-cp/tenantgate/internal/auth"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/events"
	"github.com/Harshitk-cp/tenantgate/internal/service"
	"github.com/Harshitk-cp/tenantgate/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testAdminToken = "admin-token"

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("connection refused") }

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, deps func(*Deps)) *testServer {
	t.Helper()

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
	})
	require.NoError(t, err)
	secrets, err := auth.NewSecretHasher("pepper-for-tests")
	require.NoError(t, err)

	logger := zap.NewNop()
	tenants := memory.NewTenantStore()
	publisher := events.NopPublisher{}

	apiKeys := service.NewAPIKeyService(memory.NewAPIKeyStore(), secrets, publisher, logger, service.DefaultMaxActiveKeys)
	d := Deps{
		Tenants:     service.NewTenantService(tenants, publisher, logger),
		Credentials: service.NewCredentialService(tenants, memory.NewUserStore(), auth.NewBcryptHasher(bcrypt.MinCost), tokens, publisher, logger),
		APIKeys:     apiKeys,
		Gateway:     service.NewGateway(tokens, apiKeys, logger),
		AdminToken:  testAdminToken,
	}
	if deps != nil {
		deps(&d)
	}
	return &testServer{t: t, handler: NewApp(d, logger).Router}
}

func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[respond.ErrorBody](t, rec).Error.Code
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func apiKeyHeaders(key, secret string) map[string]string {
	return map[string]string{mw.APIKeyHeader: key, mw.APISecretHeader: secret}
}

type tenantResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

func (s *testServer) createTenant(slug string) tenantResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/tenants", map[string]string{"name": "Tenant " + slug, "slug": slug},
		map[string]string{mw.AdminTokenHeader: testAdminToken})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[tenantResponse](s.t, rec)
}

func (s *testServer) register(tenantID, email, password string) domain.TokenPair {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/register", map[string]string{
		"tenantId": tenantID,
		"email":    email,
		"name":     "Test User",
		"password": password,
	}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[domain.TokenPair](s.t, rec)
}

func TestHealth(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		srv := newTestServer(t, nil)
		rec := srv.do(http.MethodGet, "/health", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decode[healthResponse](t, rec).Status)
	})

	t.Run("database unreachable", func(t *testing.T) {
		srv := newTestServer(t, func(d *Deps) { d.DB = failingPinger{} })
		rec := srv.do(http.MethodGet, "/health", nil, nil)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode[healthResponse](t, rec)
		assert.Equal(t, "error", body.Status)
		assert.NotContains(t, body.Error, "connection refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(http.MethodGet, "/health", nil, nil)

	rec := srv.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenantgate_http_requests_total")
}

func TestCreateTenant(t *testing.T) {
	srv := newTestServer(t, nil)
	body := map[string]string{"name": "Acme", "slug": "acme"}

	rec := srv.do(http.MethodPost, "/tenants", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ADMIN_TOKEN_INVALID", errorCode(t, rec))

	rec = srv.do(http.MethodPost, "/tenants", body, map[string]string{mw.AdminTokenHeader: testAdminToken})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[tenantResponse](t, rec)
	assert.Equal(t, "acme", created.Slug)
	assert.NotEmpty(t, created.ID)

	rec = srv.do(http.MethodPost, "/tenants", body, map[string]string{mw.AdminTokenHeader: testAdminToken})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TENANT_SLUG_EXISTS", errorCode(t, rec))

	rec = srv.do(http.MethodPost, "/tenants", map[string]string{"name": "Bad", "slug": "Not A Slug"},
		map[string]string{mw.AdminTokenHeader: testAdminToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestCurrentTenant(t *testing.T) {
	srv := newTestServer(t, nil)
	tenant := srv.createTenant("acme")

	rec := srv.do(http.MethodGet, "/tenants/current", nil, map[string]string{mw.TenantHeader: "acme"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, tenant.ID, decode[tenantResponse](t, rec).ID)

	req := httptest.NewRequest(http.MethodGet, "/tenants/current", nil)
	req.Host = "acme.tenantgate.example"
	sub := httptest.NewRecorder()
	srv.handler.ServeHTTP(sub, req)
	require.Equal(t, http.StatusOK, sub.Code, sub.Body.String())
	assert.Equal(t, tenant.ID, decode[tenantResponse](t, sub).ID)

	rec = srv.do(http.MethodGet, "/tenants/current", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_TENANT_CONTEXT", errorCode(t, rec))

	rec = srv.do(http.MethodGet, "/tenants/current", nil, map[string]string{mw.TenantHeader: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TENANT_NOT_FOUND", errorCode(t, rec))
}

func TestUserAuthenticationFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	tenant := srv.createTenant("acme")

	pair := srv.register(tenant.ID, "A@X.com", "pw123")
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, domain.TokenTypeBearer, pair.TokenType)
	assert.Equal(t, 24, pair.ExpiresIn)
	assert.Equal(t, "a@x.com", pair.User.Email)
	assert.Equal(t, domain.UserStatusPending, pair.User.Status)

	// Same email in a different case is still taken.
	rec := srv.do(http.MethodPost, "/auth/register", map[string]string{
		"tenantId": tenant.ID, "email": "a@x.com", "name": "Other", "password": "pw456",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_EXISTS", errorCode(t, rec))

	rec = srv.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "wrong"},
		map[string]string{mw.TenantHeader: "acme"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = srv.do(http.MethodPost, "/auth/login", map[string]string{"email": "nobody@x.com", "password": "pw123"},
		map[string]string{mw.TenantHeader: "acme"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = srv.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "pw123"},
		map[string]string{mw.TenantHeader: "acme"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[domain.TokenPair](t, rec)

	rec = srv.do(http.MethodGet, "/auth/me", nil, bearer(login.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[map[string]string](t, rec)
	assert.Equal(t, "a@x.com", me["email"])
	assert.Equal(t, tenant.ID, me["tenantId"])
	assert.Equal(t, pair.User.ID.String(), me["userId"])

	rec = srv.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": login.RefreshToken, "tenantId": tenant.ID}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, pair.User.ID, decode[domain.TokenPair](t, rec).User.ID)

	rec = srv.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": login.AccessToken, "tenantId": tenant.ID}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))

	rec = srv.do(http.MethodGet, "/auth/me", nil, bearer(login.RefreshToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "MISSING_CREDENTIALS", errorCode(t, rec))
}

func TestUnknownTenantIsNotRevealed(t *testing.T) {
	srv := newTestServer(t, nil)
	tenant := srv.createTenant("acme")
	pair := srv.register(tenant.ID, "a@x.com", "pw123")

	unknownID := "6f1c2a9e-3b7d-4c1e-9a55-0d2f8e4b7c31"
	for _, ref := range []string{"ghost", unknownID} {
		rec := srv.do(http.MethodPost, "/auth/login", map[string]string{"tenantId": ref, "email": "a@x.com", "password": "pw123"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, ref)
		assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec), ref)

		rec = srv.do(http.MethodPost, "/auth/refresh", map[string]string{"tenantId": ref, "refreshToken": pair.RefreshToken}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, ref)
		assert.Equal(t, "USER_NOT_FOUND", errorCode(t, rec), ref)

		rec = srv.do(http.MethodPost, "/auth/refresh", map[string]string{"tenantId": ref, "refreshToken": "not.a.jwt"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, ref)
		assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec), ref)
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	tenant := srv.createTenant("acme")

	cases := []struct {
		name string
		body any
		code string
	}{
		{"bad email", map[string]string{"tenantId": tenant.ID, "email": "not-an-email", "name": "A", "password": "pw"}, "VALIDATION_ERROR"},
		{"missing password", map[string]string{"tenantId": tenant.ID, "email": "a@x.com", "name": "A"}, "VALIDATION_ERROR"},
		{"unknown field", map[string]string{"tenantId": tenant.ID, "email": "a@x.com", "name": "A", "password": "pw", "role": "admin"}, "INVALID_REQUEST"},
		{"malformed json", `{"email":`, "INVALID_REQUEST"},
		{"no tenant", map[string]string{"email": "a@x.com", "name": "A", "password": "pw"}, "MISSING_TENANT_CONTEXT"},
		{"unknown tenant", map[string]string{"tenantId": "ghost", "email": "a@x.com", "name": "A", "password": "pw"}, "TENANT_NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/auth/register", tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	tenant := srv.createTenant("acme")
	user := srv.register(tenant.ID, "owner@acme.io", "pw123")
	session := bearer(user.AccessToken)

	rec := srv.do(http.MethodPost, "/api-keys", map[string]any{
		"name":   "ci-runner",
		"scopes": []string{"identity:read"},
	}, session)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.APIKeyWithSecret](t, rec)
	assert.NotEmpty(t, created.Secret)
	assert.Equal(t, domain.APIKeyStatusActive, created.Status)
	keyPath := "/api-keys/" + created.ID.String()

	rec = srv.do(http.MethodGet, "/api-keys", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), created.Secret)
	assert.Len(t, decode[[]domain.APIKey](t, rec), 1)

	rec = srv.do(http.MethodGet, "/identity", nil, apiKeyHeaders(created.Key, created.Secret))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode[domain.Identity](t, rec)
	assert.Equal(t, domain.AuthMethodAPIKey, id.Method)
	assert.Equal(t, tenant.ID, id.TenantID.String())
	require.NotNil(t, id.APIKeyID)
	assert.Equal(t, created.ID, *id.APIKeyID)

	rec = srv.do(http.MethodGet, "/api-keys", nil, apiKeyHeaders(created.Key, created.Secret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "CREDENTIAL_NOT_ACCEPTED", errorCode(t, rec))

	rec = srv.do(http.MethodGet, keyPath, nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode[domain.APIKey](t, rec).LastUsedAt)

	rec = srv.do(http.MethodPatch, keyPath, map[string]any{"scopes": []string{}}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[domain.APIKey](t, rec).Scopes)

	rec = srv.do(http.MethodGet, "/identity", nil, apiKeyHeaders(created.Key, created.Secret))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INSUFFICIENT_SCOPE", errorCode(t, rec))

	rec = srv.do(http.MethodPatch, keyPath, map[string]any{"scopes": []string{"identity:read"}}, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodPost, keyPath+"/rotate", nil, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := decode[domain.APIKeyWithSecret](t, rec)
	assert.Equal(t, created.Key, rotated.Key)
	assert.NotEqual(t, created.Secret, rotated.Secret)

	rec = srv.do(http.MethodGet, "/identity", nil, apiKeyHeaders(created.Key, created.Secret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_API_KEY_OR_SECRET", errorCode(t, rec))
	rec = srv.do(http.MethodGet, "/identity", nil, apiKeyHeaders(rotated.Key, rotated.Secret))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodPost, keyPath+"/revoke", nil, session)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(http.MethodGet, "/identity", nil, apiKeyHeaders(rotated.Key, rotated.Secret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodDelete, keyPath, nil, session)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(http.MethodGet, keyPath, nil, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "API_KEY_NOT_FOUND", errorCode(t, rec))
}

func TestAPIKeysAreTenantScoped(t *testing.T) {
	srv := newTestServer(t, nil)
	acme := srv.createTenant("acme")
	globex := srv.createTenant("globex")
	acmeUser := srv.register(acme.ID, "a@acme.io", "pw123")
	globexUser := srv.register(globex.ID, "g@globex.io", "pw123")

	rec := srv.do(http.MethodPost, "/api-keys", map[string]any{"name": "acme-key"}, bearer(acmeUser.AccessToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	key := decode[domain.APIKeyWithSecret](t, rec)

	rec = srv.do(http.MethodGet, "/api-keys/"+key.ID.String(), nil, bearer(globexUser.AccessToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodDelete, "/api-keys/"+key.ID.String(), nil, bearer(globexUser.AccessToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodGet, "/api-keys", nil, bearer(globexUser.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]domain.APIKey](t, rec))
}

func TestAPIKeyRequestErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	tenant := srv.createTenant("acme")
	session := bearer(srv.register(tenant.ID, "a@acme.io", "pw123").AccessToken)

	rec := srv.do(http.MethodPost, "/api-keys", map[string]any{"name": "ab"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = srv.do(http.MethodPost, "/api-keys", map[string]any{"name": "past", "expiresAt": "2001-01-01T00:00:00Z"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = srv.do(http.MethodPost, "/api-keys", map[string]any{"name": "dupe"}, session)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = srv.do(http.MethodPost, "/api-keys", map[string]any{"name": "dupe"}, session)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "API_KEY_NAME_EXISTS", errorCode(t, rec))

	rec = srv.do(http.MethodGet, "/api-keys/not-a-uuid", nil, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, rec))
}

func TestAPIKeyQuotaOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	tenant := srv.createTenant("acme")
	session := bearer(srv.register(tenant.ID, "a@acme.io", "pw123").AccessToken)

	for i := 0; i < service.DefaultMaxActiveKeys; i++ {
		rec := srv.do(http.MethodPost, "/api-keys", map[string]any{"name": "key-" + string(rune('a'+i))}, session)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := srv.do(http.MethodPost, "/api-keys", map[string]any{"name": "one-too-many"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "QUOTA_EXCEEDED", errorCode(t, rec))
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) { d.RateLimiter = mw.NewRateLimiter(0.001, 1) })

	rec := srv.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
}
