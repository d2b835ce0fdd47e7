package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/mocks"
)

// createAuthServiceForTest creates an AuthService with mock dependencies for testing
func createAuthServiceForTest(t *testing.T,
	userRepo domain.UserRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService) domain.AuthService {
	t.Helper()

	// Use provided mocks or create defaults
	if userRepo == nil {
		userRepo = mocks.NewMockUserRepository()
	}
	if passwordSvc == nil {
		passwordSvc = mocks.NewMockPasswordService()
	}
	if tokenSvc == nil {
		tokenSvc = mocks.NewMockTokenService()
	}

	return NewAuthService(userRepo, passwordSvc, tokenSvc, nil)
}

// createValidUser creates a valid user entity for testing
func createValidUser(t *testing.T) *domain.User {
	t.Helper()

	name := "Test User"
	return &domain.User{
		ID:           "user-1",
		Email:        "test@example.com",
		PasswordHash: "hashed_password123",
		Name:         &name,
		IsActive:     true,
		CreatedAt:    time.Now().Add(-24 * time.Hour), // Created yesterday
		UpdatedAt:    time.Now().Add(-1 * time.Hour),  // Updated 1 hour ago
	}
}

// createInactiveUser creates an inactive user entity for testing
func createInactiveUser(t *testing.T) *domain.User {
	t.Helper()

	user := createValidUser(t)
	user.IsActive = false
	return user
}

// validFeatureBody is a complete /predict body
func validFeatureBody() map[string]any {
	return map[string]any{
		"pregnancies":      2,
		"glucose":          140.0,
		"bloodPressure":    80.0,
		"skinThickness":    25.0,
		"insulin":          100.0,
		"bmi":              32.5,
		"diabetesPedigree": 0.6,
		"age":              45.0,
	}
}

var testThreeClasses = []domain.ClassSpec{
	{Label: domain.RiskNormal, Message: "Normal - Low Risk of Diabetes"},
	{Label: domain.RiskBorderline, Message: "Borderline/Pre-diabetic - Moderate Risk of Diabetes"},
	{Label: domain.RiskHigh, Message: "High Risk of Diabetes"},
}

// stubClassifier returns a fixed distribution
type stubClassifier struct {
	probs []float64
	err   error
}

func (c *stubClassifier) NumClasses() int { return len(c.probs) }

func (c *stubClassifier) PredictProba([]float64) ([]float64, error) {
	if c.err != nil {
		return nil, c.err
	}
	return append([]float64(nil), c.probs...), nil
}

// identityScaler passes values through and records the last input
type identityScaler struct {
	mu   sync.Mutex
	last []float64
}

func (s *identityScaler) Transform(raw []float64) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append([]float64(nil), raw...)
	return raw, nil
}

// stubLoader counts loads and fails while failures > 0
type stubLoader struct {
	classifier domain.Classifier
	scaler     domain.Scaler
	failures   atomic.Int32
	calls      atomic.Int32
	delay      time.Duration
}

func (l *stubLoader) Load(context.Context) (domain.Classifier, domain.Scaler, error) {
	l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.failures.Load() > 0 {
		l.failures.Add(-1)
		return nil, nil, context.DeadlineExceeded
	}
	return l.classifier, l.scaler, nil
}
