package services

import (
	"context"
	"strings"

	"github.com/you/glucopredict/domain"
)

const bearerPrefix = "Bearer "

// AuthGate resolves the active user behind a bearer token
type AuthGate struct {
	tokens domain.TokenService
	users  domain.UserRepository
}

// NewAuthGate creates a new authorizer
func NewAuthGate(tokens domain.TokenService, users domain.UserRepository) domain.Authorizer {
	return &AuthGate{tokens: tokens, users: users}
}

// Authorize implements domain.Authorizer. A failed user lookup is a store
// outage, not an authentication failure.
func (g *AuthGate) Authorize(ctx context.Context, header string) (*domain.User, error) {
	if strings.TrimSpace(header) == "" {
		return nil, domain.ErrTokenMissing
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return nil, domain.ErrAuthHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrTokenMissing
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, domain.WrapError(domain.KindUnauthenticated, domain.MessageOf(err, domain.ErrTokenInvalid.Message), err)
	}

	user, err := g.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.WrapError(domain.KindUnauthenticated, "User not found", err)
		}
		if domain.IsKind(err, domain.KindPersistence) {
			return nil, domain.WrapError(domain.KindUnreachable, "user store unavailable", err)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	return user.Sanitized(), nil
}
