package mocks

import (
	"context"

	"github.com/you/glucopredict/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing
type MockUserRepository struct {
	CreateFunc                   func(ctx context.Context, email, passwordHash string, name *string) (*domain.User, error)
	FindByEmailFunc              func(ctx context.Context, email string) (*domain.User, error)
	FindByIDFunc                 func(ctx context.Context, id string) (*domain.User, error)
	TouchLoginFunc               func(ctx context.Context, id string)
	IncrementPredictionCountFunc func(ctx context.Context, id string)
	SetActiveFunc                func(ctx context.Context, id string, active bool) error
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, email, passwordHash string, name *string) (*domain.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, email, passwordHash, name)
	}
	// Default behavior: echo the input back as an active user
	return &domain.User{ID: "user-1", Email: email, Name: name, IsActive: true}, nil
}

// FindByEmail finds a user by email
func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByID finds a user by ID
func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// TouchLogin records a login
func (m *MockUserRepository) TouchLogin(ctx context.Context, id string) {
	if m.TouchLoginFunc != nil {
		m.TouchLoginFunc(ctx, id)
	}
}

// IncrementPredictionCount bumps the prediction counter
func (m *MockUserRepository) IncrementPredictionCount(ctx context.Context, id string) {
	if m.IncrementPredictionCountFunc != nil {
		m.IncrementPredictionCountFunc(ctx, id)
	}
}

// SetActive flips the active flag
func (m *MockUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.UserRepository = (*MockUserRepository)(nil)
