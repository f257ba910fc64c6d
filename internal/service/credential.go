package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/auth"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RegisterInput struct {
	TenantID uuid.UUID
	Email    string
	Name     string
	Password string
}

type LoginInput struct {
	TenantID uuid.UUID
	Email    string
	Password string
}

type RefreshInput struct {
	RefreshToken string
	TenantID     uuid.UUID
}

// CredentialService registers users, checks passwords and issues token pairs.
type CredentialService struct {
	tenants   domain.TenantStore
	users     domain.UserStore
	passwords *auth.BcryptHasher
	tokens    *auth.TokenManager
	events    domain.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewCredentialService(
	tenants domain.TenantStore,
	users domain.UserStore,
	passwords *auth.BcryptHasher,
	tokens *auth.TokenManager,
	events domain.EventPublisher,
	logger *zap.Logger,
) *CredentialService {
	return &CredentialService{
		tenants:   tenants,
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// NormalizeEmail is applied on every write and lookup so that addresses
// differing only in case or surrounding space belong to one account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := NormalizeEmail(in.Email)

	if _, err := s.tenants.GetByID(ctx, in.TenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	_, err := s.users.FindByTenantAndEmail(ctx, in.TenantID, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		TenantID:      in.TenantID,
		Email:         email,
		Name:          strings.TrimSpace(in.Name),
		PasswordHash:  hash,
		Status:        domain.UserStatusPending,
		EmailVerified: false,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// A concurrent registration won the race past the pre-check.
		if store.IsConflictOn(err, store.ConstraintUserEmail) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("tenant_id", u.TenantID.String()),
		zap.String("user_id", u.ID.String()))
	publish(ctx, s.events, s.logger, domain.Event{
		Type:      domain.EventUserCreated,
		TenantID:  u.TenantID,
		SubjectID: u.ID,
		Payload:   map[string]any{"email": u.Email, "name": u.Name},
		Timestamp: s.now().UTC(),
	})
	return u, nil
}

// Login returns ErrInvalidCredentials for both an unknown email and a wrong
// password, and spends a bcrypt comparison on either path.
func (s *CredentialService) Login(ctx context.Context, in LoginInput) (*domain.User, error) {
	u, err := s.users.FindByTenantAndEmail(ctx, in.TenantID, NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.passwords.Burn(in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.passwords.Verify(in.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.Status.CanLogin() {
		return nil, ErrUserInactive
	}

	now := s.now().UTC()
	u.LastLoginAt = &now
	if err := s.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}
	return u, nil
}

// Refresh accepts only tokens signed with the refresh secret. The token's
// subject is looked up in the caller's tenant, so a token replayed against
// another tenant finds no user. Account status is not checked here.
func (s *CredentialService) Refresh(ctx context.Context, in RefreshInput) (*domain.User, error) {
	if in.TenantID == uuid.Nil {
		return nil, ErrMissingTenantContext
	}

	payload, err := s.tokens.VerifyRefresh(in.RefreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}

	u, err := s.users.FindByIDAndTenant(ctx, payload.UserID, in.TenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// IssueTokenPair signs a fresh access and refresh token for u. ExpiresIn is
// the access lifetime in whole hours.
func (s *CredentialService) IssueTokenPair(u *domain.User) (*domain.TokenPair, error) {
	access, err := s.tokens.IssueAccess(u.ID, u.Email, u.TenantID)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(u.ID, u.Email, u.TenantID)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    auth.WholeHours(s.tokens.AccessTTL()),
		TokenType:    domain.TokenTypeBearer,
		User:         u.Summary(),
	}, nil
}
