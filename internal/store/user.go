package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, tenant_id, email, name, password_hash, status, email_verified, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash, &u.Status,
		&u.EmailVerified, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a user. The (tenant_id, email) unique index rejects
// duplicates that slip past the service-level check.
func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (tenant_id, email, name, password_hash, status, email_verified)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		u.TenantID, u.Email, u.Name, u.PasswordHash, u.Status, u.EmailVerified,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (s *UserStore) FindByTenantAndEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND email = $2`,
		tenantID, email))
}

func (s *UserStore) FindByIDAndTenant(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND tenant_id = $2`,
		id, tenantID))
}

func (s *UserStore) Save(ctx context.Context, u *domain.User) error {
	err := s.db.QueryRow(ctx,
		`UPDATE users
		 SET email = $3, name = $4, password_hash = $5, status = $6, email_verified = $7,
		     last_login_at = $8, updated_at = NOW()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING updated_at`,
		u.ID, u.TenantID, u.Email, u.Name, u.PasswordHash, u.Status, u.EmailVerified, u.LastLoginAt,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError(err)
	}
	return nil
}
