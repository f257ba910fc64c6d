package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TenantService struct {
	store  domain.TenantStore
	events domain.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

func NewTenantService(s domain.TenantStore, events domain.EventPublisher, logger *zap.Logger) *TenantService {
	return &TenantService{store: s, events: events, logger: logger, now: time.Now}
}

func (s *TenantService) Create(ctx context.Context, name, slug string) (*domain.Tenant, error) {
	t := &domain.Tenant{
		Name:   strings.TrimSpace(name),
		Slug:   strings.ToLower(strings.TrimSpace(slug)),
		Status: domain.TenantStatusActive,
	}
	if err := s.store.Create(ctx, t); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrTenantSlugExists
		}
		return nil, err
	}

	s.logger.Info("tenant created", zap.String("tenant_id", t.ID.String()), zap.String("slug", t.Slug))
	publish(ctx, s.events, s.logger, domain.Event{
		Type:      domain.EventTenantCreated,
		TenantID:  t.ID,
		SubjectID: t.ID,
		Payload:   map[string]any{"name": t.Name, "slug": t.Slug},
		Timestamp: s.now().UTC(),
	})
	return t, nil
}

// Resolve maps a tenant reference from a header or subdomain to a tenant
// id. A UUID is taken as-is without a lookup; anything else is a slug.
func (s *TenantService) Resolve(ctx context.Context, ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	t, err := s.store.GetBySlug(ctx, strings.ToLower(ref))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, ErrTenantNotFound
		}
		return uuid.Nil, err
	}
	return t.ID, nil
}

func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}
