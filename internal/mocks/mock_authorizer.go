package mocks

import (
	"context"

	"github.com/you/glucopredict/domain"
)

// MockAuthorizer implements domain.Authorizer interface for testing
type MockAuthorizer struct {
	AuthorizeFunc func(ctx context.Context, authorizationHeader string) (*domain.User, error)
}

// NewMockAuthorizer creates a new MockAuthorizer with default behaviors
func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{}
}

// Authorize resolves the caller
func (m *MockAuthorizer) Authorize(ctx context.Context, authorizationHeader string) (*domain.User, error) {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, authorizationHeader)
	}
	// Default behavior: reject
	return nil, domain.ErrUnauthorized
}

// Compile-time interface compliance verification
var _ domain.Authorizer = (*MockAuthorizer)(nil)
