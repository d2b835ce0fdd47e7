package mocks

import (
	"strings"
	"time"

	"github.com/you/glucopredict/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueFunc  func(userID, email string) (string, error)
	VerifyFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// Issue signs a token for the user
func (m *MockTokenService) Issue(userID, email string) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(userID, email)
	}
	// Default behavior: return a mock token
	return "token_" + userID, nil
}

// Verify parses a token and returns claims
func (m *MockTokenService) Verify(token string) (*domain.TokenClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token)
	}
	// Default behavior: accept tokens produced by Issue
	userID, ok := strings.CutPrefix(token, "token_")
	if !ok || userID == "" {
		return nil, domain.ErrTokenInvalid
	}

	now := time.Now()
	return &domain.TokenClaims{
		Subject:   userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
