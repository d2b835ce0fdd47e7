package mocks

import (
	"context"

	"github.com/you/glucopredict/domain"
)

// MockInferenceService implements domain.InferenceService interface for testing
type MockInferenceService struct {
	PredictFunc func(ctx context.Context, raw []float64) (*domain.ClassificationResult, error)
	ReadyFunc   func(ctx context.Context) error
}

// NewMockInferenceService creates a new MockInferenceService with default behaviors
func NewMockInferenceService() *MockInferenceService {
	return &MockInferenceService{}
}

// Predict classifies a raw feature vector
func (m *MockInferenceService) Predict(ctx context.Context, raw []float64) (*domain.ClassificationResult, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, raw)
	}
	// Default behavior: confident normal
	return &domain.ClassificationResult{
		Risk:           domain.RiskNormal,
		Message:        "Normal - Low Risk of Diabetes",
		Probabilities:  []float64{0.9, 0.1},
		Labels:         []domain.RiskLevel{domain.RiskNormal, domain.RiskHigh},
		PredictedClass: 0,
	}, nil
}

// Ready reports whether artifacts are loaded
func (m *MockInferenceService) Ready(ctx context.Context) error {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.InferenceService = (*MockInferenceService)(nil)

// MockPredictionService implements domain.PredictionService interface for testing
type MockPredictionService struct {
	ClassifyFunc func(ctx context.Context, identity *domain.User, raw map[string]any) (*domain.PredictionResponse, error)
	HistoryFunc  func(ctx context.Context, user *domain.User, limit, skip int) ([]domain.Prediction, int, error)
	StatsFunc    func(ctx context.Context, user *domain.User) (*domain.PredictionStats, error)
}

// NewMockPredictionService creates a new MockPredictionService with default behaviors
func NewMockPredictionService() *MockPredictionService {
	return &MockPredictionService{}
}

// Classify serves one classification
func (m *MockPredictionService) Classify(ctx context.Context, identity *domain.User, raw map[string]any) (*domain.PredictionResponse, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, identity, raw)
	}
	return &domain.PredictionResponse{
		Risk:          domain.RiskNormal,
		Message:       "Normal - Low Risk of Diabetes",
		Probabilities: map[string]float64{"normal": 0.9, "high": 0.1},
	}, nil
}

// History lists a user's predictions
func (m *MockPredictionService) History(ctx context.Context, user *domain.User, limit, skip int) ([]domain.Prediction, int, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, user, limit, skip)
	}
	limit, _ = domain.ClampPaging(limit, skip)
	return []domain.Prediction{}, limit, nil
}

// Stats aggregates a user's predictions
func (m *MockPredictionService) Stats(ctx context.Context, user *domain.User) (*domain.PredictionStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, user)
	}
	return &domain.PredictionStats{RiskDistribution: map[string]int64{}}, nil
}

// Compile-time interface compliance verification
var _ domain.PredictionService = (*MockPredictionService)(nil)
