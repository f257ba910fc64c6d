// Package memory provides mutex-guarded in-process stores. They back the
// service when STORE_DRIVER=memory and are used by the service and API tests.
// Uniqueness rules mirror the Postgres unique constraints and report the
// same store.ConflictError values.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
)

type TenantStore struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]domain.Tenant
	now     func() time.Time
}

func NewTenantStore() *TenantStore {
	return &TenantStore{tenants: make(map[uuid.UUID]domain.Tenant), now: time.Now}
}

func (s *TenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tenants {
		if existing.Slug == t.Slug {
			return &store.ConflictError{Constraint: store.ConstraintTenantSlug}
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = domain.TenantStatusActive
	}
	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tenants[t.ID] = *t
	return nil
}

func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, store.ErrNotFound
}

type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
	now   func() time.Time
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]domain.User), now: time.Now}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.TenantID == u.TenantID && existing.Email == u.Email {
			return &store.ConflictError{Constraint: store.ConstraintUserEmail}
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) FindByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.TenantID == tenantID && u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) FindByIDAndTenant(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) Save(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok || existing.TenantID != u.TenantID {
		return store.ErrNotFound
	}
	u.UpdatedAt = s.now()
	s.users[u.ID] = *u
	return nil
}

type APIKeyStore struct {
	mu    sync.RWMutex
	keys  map[uuid.UUID]domain.APIKey
	order map[uuid.UUID]uint64
	seq   uint64
	now   func() time.Time
}

func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{
		keys:  make(map[uuid.UUID]domain.APIKey),
		order: make(map[uuid.UUID]uint64),
		now:   time.Now,
	}
}

// copyKey detaches the scopes slice so callers cannot mutate stored state.
func copyKey(k domain.APIKey) *domain.APIKey {
	k.Scopes = append([]string{}, k.Scopes...)
	return &k
}

func (s *APIKeyStore) Create(ctx context.Context, k *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.keys {
		if existing.Key == k.Key {
			return &store.ConflictError{Constraint: store.ConstraintAPIKeyKey}
		}
		if existing.TenantID == k.TenantID && existing.Name == k.Name {
			return &store.ConflictError{Constraint: store.ConstraintAPIKeyName}
		}
	}
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	if k.Scopes == nil {
		k.Scopes = []string{}
	}
	now := s.now()
	k.CreatedAt = now
	k.UpdatedAt = now
	s.seq++
	s.order[k.ID] = s.seq
	s.keys[k.ID] = *copyKey(*k)
	return nil
}

func (s *APIKeyStore) FindByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.keys {
		if k.Key == key {
			return copyKey(k), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *APIKeyStore) FindByTenantAndID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keys[id]
	if !ok || k.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return copyKey(k), nil
}

func (s *APIKeyStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := []domain.APIKey{}
	for _, k := range s.keys {
		if k.TenantID == tenantID {
			keys = append(keys, *copyKey(k))
		}
	}
	// Newest first; insertion order breaks ties between equal timestamps.
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].CreatedAt.After(keys[j].CreatedAt)
		}
		return s.order[keys[i].ID] > s.order[keys[j].ID]
	})
	return keys, nil
}

func (s *APIKeyStore) CountActiveForTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, k := range s.keys {
		if k.TenantID == tenantID && k.Status == domain.APIKeyStatusActive {
			n++
		}
	}
	return n, nil
}

func (s *APIKeyStore) Save(ctx context.Context, k *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.keys[k.ID]
	if !ok || existing.TenantID != k.TenantID {
		return store.ErrNotFound
	}
	for id, other := range s.keys {
		if id != k.ID && other.TenantID == k.TenantID && other.Name == k.Name {
			return &store.ConflictError{Constraint: store.ConstraintAPIKeyName}
		}
	}
	// Key and creation time are immutable.
	k.Key = existing.Key
	k.CreatedAt = existing.CreatedAt
	if k.Scopes == nil {
		k.Scopes = []string{}
	}
	k.UpdatedAt = s.now()
	s.keys[k.ID] = *copyKey(*k)
	return nil
}

func (s *APIKeyStore) TouchLastUsed(ctx context.Context, id uuid.UUID, secretHash string, at time.Time) (*domain.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[id]
	if !ok || k.Status != domain.APIKeyStatusActive || k.SecretHash != secretHash {
		return nil, store.ErrNotFound
	}
	at = at.UTC()
	k.LastUsedAt = &at
	s.keys[id] = k
	return copyKey(k), nil
}

func (s *APIKeyStore) MarkExpired(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[id]
	if !ok || k.Status != domain.APIKeyStatusActive {
		return nil
	}
	k.Status = domain.APIKeyStatusExpired
	k.UpdatedAt = s.now()
	s.keys[id] = k
	return nil
}

func (s *APIKeyStore) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keys[id]
	if !ok || k.TenantID != tenantID {
		return store.ErrNotFound
	}
	delete(s.keys, id)
	delete(s.order, id)
	return nil
}

var (
	_ domain.TenantStore = (*TenantStore)(nil)
	_ domain.UserStore   = (*UserStore)(nil)
	_ domain.APIKeyStore = (*APIKeyStore)(nil)
)
