package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTenantCacheTTL = 5 * time.Minute

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// CachedTenantStore is a read-through cache in front of a TenantStore.
// Tenant lookups happen on every request carrying a slug reference, so hits
// skip the database. Redis failures fall through to the backing store.
// Misses are not cached.
type CachedTenantStore struct {
	next   domain.TenantStore
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedTenantStore(next domain.TenantStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedTenantStore {
	if ttl <= 0 {
		ttl = DefaultTenantCacheTTL
	}
	return &CachedTenantStore{next: next, redis: client, ttl: ttl, logger: logger}
}

func tenantIDKey(id uuid.UUID) string {
	return "tenant:" + id.String()
}

func tenantSlugKey(slug string) string {
	return "tenant:slug:" + slug
}

func (c *CachedTenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	if err := c.next.Create(ctx, t); err != nil {
		return err
	}
	c.put(ctx, t)
	return nil
}

func (c *CachedTenantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	if t, ok := c.get(ctx, tenantIDKey(id)); ok {
		return t, nil
	}
	t, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(ctx, t)
	return t, nil
}

func (c *CachedTenantStore) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	if t, ok := c.get(ctx, tenantSlugKey(slug)); ok {
		return t, nil
	}
	t, err := c.next.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.put(ctx, t)
	return t, nil
}

func (c *CachedTenantStore) get(ctx context.Context, key string) (*domain.Tenant, bool) {
	cached, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("tenant cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var t domain.Tenant
	if err := json.Unmarshal([]byte(cached), &t); err != nil {
		c.logger.Warn("tenant cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &t, true
}

func (c *CachedTenantStore) put(ctx context.Context, t *domain.Tenant) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	pipe := c.redis.TxPipeline()
	pipe.Set(ctx, tenantIDKey(t.ID), data, c.ttl)
	pipe.Set(ctx, tenantSlugKey(t.Slug), data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("tenant cache write failed", zap.String("tenant_id", t.ID.String()), zap.Error(err))
	}
}
