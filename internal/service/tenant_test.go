package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant, err := env.tenantSvc.Create(ctx, " Acme Corp ", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", tenant.Name)
	assert.Equal(t, "acme", tenant.Slug)
	assert.Equal(t, domain.TenantStatusActive, tenant.Status)
	assert.Equal(t, []domain.EventType{domain.EventTenantCreated}, env.events.types())

	_, err = env.tenantSvc.Create(ctx, "Other", "acme")
	assert.ErrorIs(t, err, ErrTenantSlugExists)
}

func TestTenantService_Resolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := env.createTenant(t, "acme")

	id, err := env.tenantSvc.Resolve(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, id)

	id, err = env.tenantSvc.Resolve(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, id)

	// UUID references are passed through without a lookup.
	unknown := uuid.New()
	id, err = env.tenantSvc.Resolve(ctx, unknown.String())
	require.NoError(t, err)
	assert.Equal(t, unknown, id)

	_, err = env.tenantSvc.Resolve(ctx, "globex")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestTenantService_Get(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.createTenant(t, "acme")

	got, err := env.tenantSvc.Get(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Slug)

	_, err = env.tenantSvc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
