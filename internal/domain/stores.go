package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	FindByIDAndTenant(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*User, error)
	Save(ctx context.Context, u *User) error
}

// APIKeyStore persists API keys. FindByKey is the only lookup that is not
// tenant-scoped; it serves authentication before the tenant is known.
type APIKeyStore interface {
	Create(ctx context.Context, k *APIKey) error
	FindByKey(ctx context.Context, key string) (*APIKey, error)
	FindByTenantAndID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*APIKey, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]APIKey, error)
	CountActiveForTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
	Save(ctx context.Context, k *APIKey) error
	Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error

	// TouchLastUsed records a successful validation. It only applies while
	// the key is still ACTIVE with the given secret hash and returns the
	// current row; otherwise it returns store.ErrNotFound.
	TouchLastUsed(ctx context.Context, id uuid.UUID, secretHash string, at time.Time) (*APIKey, error)
	// MarkExpired moves an ACTIVE key to EXPIRED and leaves any other status.
	MarkExpired(ctx context.Context, id uuid.UUID) error
}
