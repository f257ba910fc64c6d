package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Harshitk-cp/tenantgate/internal/auth"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/store/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// recordingPublisher keeps every published event for inspection.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	tenants     *memory.TenantStore
	users       *memory.UserStore
	keys        *memory.APIKeyStore
	tokens      *auth.TokenManager
	events      *recordingPublisher
	tenantSvc   *TenantService
	credentials *CredentialService
	apiKeys     *APIKeyService
	gateway     *Gateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
	})
	require.NoError(t, err)
	secrets, err := auth.NewSecretHasher("pepper-for-tests")
	require.NoError(t, err)

	env := &testEnv{
		tenants: memory.NewTenantStore(),
		users:   memory.NewUserStore(),
		keys:    memory.NewAPIKeyStore(),
		tokens:  tokens,
		events:  &recordingPublisher{},
	}
	logger := zap.NewNop()
	env.tenantSvc = NewTenantService(env.tenants, env.events, logger)
	env.credentials = NewCredentialService(env.tenants, env.users, auth.NewBcryptHasher(bcrypt.MinCost), tokens, env.events, logger)
	env.apiKeys = NewAPIKeyService(env.keys, secrets, env.events, logger, DefaultMaxActiveKeys)
	env.gateway = NewGateway(tokens, env.apiKeys, logger)
	return env
}

func (e *testEnv) createTenant(t *testing.T, slug string) *domain.Tenant {
	t.Helper()
	tenant, err := e.tenantSvc.Create(context.Background(), "Tenant "+slug, slug)
	require.NoError(t, err)
	return tenant
}

var errBrokerDown = errors.New("broker unavailable")
