package mocks

import (
	"context"
	"time"

	"github.com/you/glucopredict/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	RegisterFunc   func(ctx context.Context, email, password string, name *string) (*domain.AuthResult, error)
	LoginFunc      func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	DeactivateFunc func(ctx context.Context, user *domain.User) error
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Register registers a new user
func (m *MockAuthService) Register(ctx context.Context, email, password string, name *string) (*domain.AuthResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, name)
	}
	// Default behavior: return a mock user
	return &domain.AuthResult{
		User: &domain.User{
			ID:        "user-1",
			Email:     email,
			Name:      name,
			IsActive:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Token: "mock_token",
	}, nil
}

// Login authenticates a user and returns auth result
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	// Default behavior: return successful auth result
	return &domain.AuthResult{
		User:  &domain.User{ID: "user-1", Email: email, IsActive: true},
		Token: "mock_token",
	}, nil
}

// Deactivate disables the account
func (m *MockAuthService) Deactivate(ctx context.Context, user *domain.User) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, user)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
