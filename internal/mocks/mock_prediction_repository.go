package mocks

import (
	"context"

	"github.com/you/glucopredict/domain"
)

// MockPredictionRepository implements domain.PredictionRepository interface for testing
type MockPredictionRepository struct {
	RecordFunc       func(ctx context.Context, userID string, input domain.Features, result *domain.ClassificationResult, accuracy, latencyMs float64) (*domain.Prediction, error)
	ListForUserFunc  func(ctx context.Context, userID string, limit, skip int) ([]domain.Prediction, error)
	StatsForUserFunc func(ctx context.Context, userID string) (*domain.PredictionStats, error)
}

// NewMockPredictionRepository creates a new MockPredictionRepository with default behaviors
func NewMockPredictionRepository() *MockPredictionRepository {
	return &MockPredictionRepository{}
}

// Record stores a prediction
func (m *MockPredictionRepository) Record(ctx context.Context, userID string, input domain.Features, result *domain.ClassificationResult, accuracy, latencyMs float64) (*domain.Prediction, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, userID, input, result, accuracy, latencyMs)
	}
	return &domain.Prediction{
		ID:             "prediction-1",
		UserID:         userID,
		Features:       input,
		RiskLevel:      result.Risk,
		RiskMessage:    result.Message,
		Probabilities:  result.ProbabilityMap(),
		PredictedClass: result.PredictedClass,
		ModelAccuracy:  accuracy,
		ResponseTimeMs: latencyMs,
	}, nil
}

// ListForUser lists a user's predictions
func (m *MockPredictionRepository) ListForUser(ctx context.Context, userID string, limit, skip int) ([]domain.Prediction, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID, limit, skip)
	}
	return []domain.Prediction{}, nil
}

// StatsForUser aggregates a user's predictions
func (m *MockPredictionRepository) StatsForUser(ctx context.Context, userID string) (*domain.PredictionStats, error) {
	if m.StatsForUserFunc != nil {
		return m.StatsForUserFunc(ctx, userID)
	}
	return &domain.PredictionStats{RiskDistribution: map[string]int64{}}, nil
}

// Compile-time interface compliance verification
var _ domain.PredictionRepository = (*MockPredictionRepository)(nil)
