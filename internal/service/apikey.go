package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/auth"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/metrics"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMaxActiveKeys = 10

type CreateAPIKeyInput struct {
	Name      string
	Scopes    []string
	ExpiresAt *time.Time
}

type UpdateAPIKeyInput = domain.APIKeyUpdate

// APIKeyService manages tenant-scoped service credentials.
type APIKeyService struct {
	keys      domain.APIKeyStore
	secrets   *auth.SecretHasher
	events    domain.EventPublisher
	logger    *zap.Logger
	maxActive int
	now       func() time.Time

	generateKey    func() (string, error)
	generateSecret func() (string, error)
}

func NewAPIKeyService(keys domain.APIKeyStore, secrets *auth.SecretHasher, events domain.EventPublisher, logger *zap.Logger, maxActive int) *APIKeyService {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveKeys
	}
	return &APIKeyService{
		keys:           keys,
		secrets:        secrets,
		events:         events,
		logger:         logger,
		maxActive:      maxActive,
		now:            time.Now,
		generateKey:    auth.GenerateAPIKey,
		generateSecret: auth.GenerateAPISecret,
	}
}

// Create issues a new key and returns its plaintext secret. The quota check
// counts before inserting, so concurrent creates may overshoot it.
func (s *APIKeyService) Create(ctx context.Context, tenantID uuid.UUID, in CreateAPIKeyInput) (*domain.APIKeyWithSecret, error) {
	active, err := s.keys.CountActiveForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if active >= s.maxActive {
		return nil, ErrQuotaExceeded
	}

	key, err := s.generateKey()
	if err != nil {
		return nil, fmt.Errorf("generating api key: %w", err)
	}
	secret, err := s.generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generating api secret: %w", err)
	}

	_, err = s.keys.FindByKey(ctx, key)
	if err == nil {
		return nil, ErrDuplicateKey
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	k := &domain.APIKey{
		TenantID:   tenantID,
		Name:       strings.TrimSpace(in.Name),
		Key:        key,
		SecretHash: s.secrets.Hash(secret),
		Status:     domain.APIKeyStatusActive,
		Scopes:     normalizeScopes(in.Scopes),
		ExpiresAt:  utcPtr(in.ExpiresAt),
	}
	if err := s.keys.Create(ctx, k); err != nil {
		return nil, mapKeyConflict(err)
	}

	metrics.APIKeyOperations.WithLabelValues("create").Inc()
	s.logger.Info("api key created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("api_key_id", k.ID.String()))
	s.emit(ctx, domain.EventAPIKeyCreated, k)
	return &domain.APIKeyWithSecret{APIKey: *k, Secret: secret}, nil
}

// List returns the tenant's keys, newest first, without secret material.
func (s *APIKeyService) List(ctx context.Context, tenantID uuid.UUID) ([]domain.APIKey, error) {
	return s.keys.ListByTenant(ctx, tenantID)
}

func (s *APIKeyService) Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*domain.APIKey, error) {
	k, err := s.keys.FindByTenantAndID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	return k, nil
}

func (s *APIKeyService) Update(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, in UpdateAPIKeyInput) (*domain.APIKey, error) {
	k, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		k.Name = strings.TrimSpace(*in.Name)
	}
	if in.Scopes != nil {
		k.Scopes = normalizeScopes(*in.Scopes)
	}
	if in.ExpiresAt != nil {
		k.ExpiresAt = utcPtr(in.ExpiresAt)
	}

	if err := s.save(ctx, k); err != nil {
		return nil, err
	}
	metrics.APIKeyOperations.WithLabelValues("update").Inc()
	return k, nil
}

// Revoke is idempotent; revoking a revoked key succeeds without change.
func (s *APIKeyService) Revoke(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	k, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if k.Status == domain.APIKeyStatusRevoked {
		return nil
	}

	k.Status = domain.APIKeyStatusRevoked
	if err := s.save(ctx, k); err != nil {
		return err
	}
	metrics.APIKeyOperations.WithLabelValues("revoke").Inc()
	s.logger.Info("api key revoked",
		zap.String("tenant_id", tenantID.String()),
		zap.String("api_key_id", id.String()))
	s.emit(ctx, domain.EventAPIKeyRevoked, k)
	return nil
}

func (s *APIKeyService) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	k, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.keys.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAPIKeyNotFound
		}
		return err
	}
	metrics.APIKeyOperations.WithLabelValues("delete").Inc()
	s.logger.Info("api key deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("api_key_id", id.String()))
	s.emit(ctx, domain.EventAPIKeyDeleted, k)
	return nil
}

// Rotate replaces the secret and returns the new plaintext once. The key
// string, status and every other attribute stay as they were.
func (s *APIKeyService) Rotate(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*domain.APIKeyWithSecret, error) {
	k, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	secret, err := s.generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generating api secret: %w", err)
	}
	k.SecretHash = s.secrets.Hash(secret)
	if err := s.save(ctx, k); err != nil {
		return nil, err
	}

	metrics.APIKeyOperations.WithLabelValues("rotate").Inc()
	s.logger.Info("api key rotated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("api_key_id", id.String()))
	s.emit(ctx, domain.EventAPIKeyRotated, k)
	return &domain.APIKeyWithSecret{APIKey: *k, Secret: secret}, nil
}

// Validate checks a key/secret pair. Every rejection yields
// ErrInvalidAPIKeyOrSecret so callers cannot tell which check failed. An
// ACTIVE key found past its expiry is persisted as EXPIRED before rejecting.
// Storage failures are returned as they are.
func (s *APIKeyService) Validate(ctx context.Context, key, secret string) (*domain.APIKey, error) {
	if key == "" || secret == "" {
		return nil, ErrInvalidAPIKeyOrSecret
	}

	k, err := s.keys.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidAPIKeyOrSecret
		}
		return nil, err
	}

	if k.Status != domain.APIKeyStatusActive {
		return nil, ErrInvalidAPIKeyOrSecret
	}

	now := s.now().UTC()
	if k.IsExpired(now) {
		if err := s.keys.MarkExpired(ctx, k.ID); err != nil {
			return nil, fmt.Errorf("marking api key expired: %w", err)
		}
		return nil, ErrInvalidAPIKeyOrSecret
	}

	if !s.secrets.Verify(secret, k.SecretHash) {
		return nil, ErrInvalidAPIKeyOrSecret
	}

	// The touch is conditional on the status and hash just verified, so a
	// revoke or rotate that lands after the read still rejects this call.
	current, err := s.keys.TouchLastUsed(ctx, k.ID, k.SecretHash, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidAPIKeyOrSecret
		}
		return nil, fmt.Errorf("recording api key use: %w", err)
	}
	return current, nil
}

func (s *APIKeyService) save(ctx context.Context, k *domain.APIKey) error {
	if err := s.keys.Save(ctx, k); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAPIKeyNotFound
		}
		return mapKeyConflict(err)
	}
	return nil
}

func (s *APIKeyService) emit(ctx context.Context, t domain.EventType, k *domain.APIKey) {
	publish(ctx, s.events, s.logger, domain.Event{
		Type:      t,
		TenantID:  k.TenantID,
		SubjectID: k.ID,
		Payload:   map[string]any{"name": k.Name, "key": k.Key, "status": k.Status},
		Timestamp: s.now().UTC(),
	})
}

func mapKeyConflict(err error) error {
	switch {
	case store.IsConflictOn(err, store.ConstraintAPIKeyKey):
		return ErrDuplicateKey
	case store.IsConflictOn(err, store.ConstraintAPIKeyName):
		return ErrAPIKeyNameExists
	}
	return err
}

// normalizeScopes trims, drops empties and de-duplicates, keeping order.
func normalizeScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
