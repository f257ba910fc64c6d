package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrMissingSecret    = errors.New("token signing secrets must be set")
	ErrSecretsNotUnique = errors.New("access and refresh signing secrets must differ")
)

// Claims is the signed payload of both access and refresh tokens.
type Claims struct {
	Email     string `json:"email"`
	TenantID  string `json:"tenantId"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPayload is the verified content of a token.
type TokenPayload struct {
	UserID    uuid.UUID
	Email     string
	TenantID  uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenManager signs and verifies HS256 tokens. Access and refresh tokens use
// separate secrets and lifetimes; a token signed for one kind never verifies
// as the other.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, ErrSecretsNotUnique
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *TokenManager) IssueAccess(userID uuid.UUID, email string, tenantID uuid.UUID) (string, error) {
	return m.sign(userID, email, tenantID, tokenTypeAccess, m.accessTTL, m.accessSecret)
}

func (m *TokenManager) IssueRefresh(userID uuid.UUID, email string, tenantID uuid.UUID) (string, error) {
	return m.sign(userID, email, tenantID, tokenTypeRefresh, m.refreshTTL, m.refreshSecret)
}

func (m *TokenManager) VerifyAccess(token string) (*TokenPayload, error) {
	return m.verify(token, tokenTypeAccess, m.accessSecret)
}

func (m *TokenManager) VerifyRefresh(token string) (*TokenPayload, error) {
	return m.verify(token, tokenTypeRefresh, m.refreshSecret)
}

func (m *TokenManager) sign(userID uuid.UUID, email string, tenantID uuid.UUID, tokenType string, ttl time.Duration, secret []byte) (string, error) {
	now := m.now().UTC()
	claims := &Claims{
		Email:     email,
		TenantID:  tenantID.String(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (m *TokenManager) verify(token string, tokenType string, secret []byte) (*TokenPayload, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad tenant", ErrInvalidToken)
	}

	payload := &TokenPayload{
		UserID:   userID,
		Email:    claims.Email,
		TenantID: tenantID,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}

// WholeHours truncates d to whole hours for client display.
func WholeHours(d time.Duration) int {
	return int(d / time.Hour)
}
