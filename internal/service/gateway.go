package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/tenantgate/internal/auth"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/metrics"
	"go.uber.org/zap"
)

// Gateway turns a presented credential into an Identity.
type Gateway struct {
	tokens *auth.TokenManager
	keys   *APIKeyService
	logger *zap.Logger
}

func NewGateway(tokens *auth.TokenManager, keys *APIKeyService, logger *zap.Logger) *Gateway {
	return &Gateway{tokens: tokens, keys: keys, logger: logger}
}

func (g *Gateway) Authenticate(ctx context.Context, cred domain.Credential) (*domain.Identity, error) {
	var (
		id  *domain.Identity
		err error
	)
	switch c := cred.(type) {
	case domain.BearerCredential:
		id, err = g.bearer(c)
	case domain.APIKeyCredential:
		id, err = g.apiKey(ctx, c)
	default:
		return nil, ErrMissingCredentials
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.AuthAttempts.WithLabelValues(string(cred.Method()), outcome).Inc()
	return id, err
}

func (g *Gateway) bearer(c domain.BearerCredential) (*domain.Identity, error) {
	payload, err := g.tokens.VerifyAccess(c.Token)
	if err != nil {
		g.logger.Debug("bearer token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}
	return &domain.Identity{
		UserID:   payload.UserID,
		TenantID: payload.TenantID,
		Email:    payload.Email,
		Method:   domain.AuthMethodJWT,
	}, nil
}

func (g *Gateway) apiKey(ctx context.Context, c domain.APIKeyCredential) (*domain.Identity, error) {
	if c.Key == "" || c.Secret == "" {
		return nil, ErrMissingAPIKeyCredential
	}
	k, err := g.keys.Validate(ctx, c.Key, c.Secret)
	if err != nil {
		if !errors.Is(err, ErrInvalidAPIKeyOrSecret) {
			g.logger.Error("api key validation failed", zap.Error(err))
		}
		return nil, err
	}
	keyID := k.ID
	return &domain.Identity{
		UserID:   k.ID,
		TenantID: k.TenantID,
		Scopes:   k.Scopes,
		Method:   domain.AuthMethodAPIKey,
		APIKeyID: &keyID,
	}, nil
}
