package store

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type APIKeyStore struct {
	db *pgxpool.Pool
}

func NewAPIKeyStore(db *pgxpool.Pool) *APIKeyStore {
	return &APIKeyStore{db: db}
}

const apiKeyColumns = `id, tenant_id, name, key, secret_hash, status, scopes, expires_at, last_used_at, created_at, updated_at`

func scanAPIKey(row pgx.Row) (*domain.APIKey, error) {
	k := &domain.APIKey{}
	err := row.Scan(&k.ID, &k.TenantID, &k.Name, &k.Key, &k.SecretHash, &k.Status, &k.Scopes,
		&k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if k.Scopes == nil {
		k.Scopes = []string{}
	}
	return k, nil
}

// Create inserts a key in one statement; the unique constraints on key and
// (tenant_id, name) are the authoritative uniqueness checks.
func (s *APIKeyStore) Create(ctx context.Context, k *domain.APIKey) error {
	if k.Scopes == nil {
		k.Scopes = []string{}
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (tenant_id, name, key, secret_hash, status, scopes, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		k.TenantID, k.Name, k.Key, k.SecretHash, k.Status, k.Scopes, k.ExpiresAt,
	).Scan(&k.ID, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *APIKeyStore) FindByKey(ctx context.Context, key string) (*domain.APIKey, error) {
	return scanAPIKey(s.db.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key = $1`, key))
}

func (s *APIKeyStore) FindByTenantAndID(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*domain.APIKey, error) {
	return scanAPIKey(s.db.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1 AND tenant_id = $2`, id, tenantID))
}

func (s *APIKeyStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.APIKey, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []domain.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}

func (s *APIKeyStore) CountActiveForTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM api_keys WHERE tenant_id = $1 AND status = $2`,
		tenantID, domain.APIKeyStatusActive,
	).Scan(&n)
	return n, err
}

func (s *APIKeyStore) Save(ctx context.Context, k *domain.APIKey) error {
	if k.Scopes == nil {
		k.Scopes = []string{}
	}
	err := s.db.QueryRow(ctx,
		`UPDATE api_keys
		 SET name = $3, secret_hash = $4, status = $5, scopes = $6, expires_at = $7,
		     last_used_at = $8, updated_at = NOW()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING updated_at`,
		k.ID, k.TenantID, k.Name, k.SecretHash, k.Status, k.Scopes, k.ExpiresAt, k.LastUsedAt,
	).Scan(&k.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

// TouchLastUsed writes last_used_at only, so it cannot undo a revoke, rotate
// or update that committed after the key was read.
func (s *APIKeyStore) TouchLastUsed(ctx context.Context, id uuid.UUID, secretHash string, at time.Time) (*domain.APIKey, error) {
	return scanAPIKey(s.db.QueryRow(ctx,
		`UPDATE api_keys SET last_used_at = $3
		 WHERE id = $1 AND secret_hash = $2 AND status = $4
		 RETURNING `+apiKeyColumns,
		id, secretHash, at, domain.APIKeyStatusActive))
}

func (s *APIKeyStore) MarkExpired(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE api_keys SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, domain.APIKeyStatusExpired, domain.APIKeyStatusActive)
	return err
}

func (s *APIKeyStore) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM api_keys WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
