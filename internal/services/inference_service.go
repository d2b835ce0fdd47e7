package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/logging"
)

// ClassTableFunc returns the label table for a classifier with n outputs
type ClassTableFunc func(n int) ([]domain.ClassSpec, error)

// StaticClassTable always returns classes and lets the size check reject a mismatch.
func StaticClassTable(classes []domain.ClassSpec) ClassTableFunc {
	return func(int) ([]domain.ClassSpec, error) {
		return classes, nil
	}
}

type artifacts struct {
	classifier domain.Classifier
	scaler     domain.Scaler
	classes    []domain.ClassSpec
	labels     []domain.RiskLevel
}

// InferenceServiceImpl holds the lazily loaded artifact pair
type InferenceServiceImpl struct {
	loader  domain.ArtifactLoader
	classes ClassTableFunc
	logger  *slog.Logger

	mu     sync.Mutex
	loaded atomic.Pointer[artifacts]
}

// NewInferenceService creates an inference service. Nothing is loaded until
// the first Predict or Ready call.
func NewInferenceService(loader domain.ArtifactLoader, classes ClassTableFunc, log *slog.Logger) domain.InferenceService {
	return &InferenceServiceImpl{
		loader:  loader,
		classes: classes,
		logger:  logging.OrNop(log).With("component", "inference"),
	}
}

// Ready implements domain.InferenceService
func (s *InferenceServiceImpl) Ready(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

// Predict implements domain.InferenceService
func (s *InferenceServiceImpl) Predict(ctx context.Context, raw []float64) (*domain.ClassificationResult, error) {
	if len(raw) != domain.FeatureCount {
		return nil, domain.ErrInvalidFeatureVector
	}
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, domain.ErrInvalidFeatureVector
		}
	}

	a, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	scaled, err := a.scaler.Transform(raw)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "scaling failed", err)
	}
	probs, err := a.classifier.PredictProba(scaled)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "classifier failed", err)
	}
	probs, err = normalise(probs, len(a.classes))
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "classifier returned an invalid distribution", err)
	}

	idx := domain.ArgMax(probs)
	return &domain.ClassificationResult{
		Risk:           a.classes[idx].Label,
		Message:        a.classes[idx].Message,
		Probabilities:  probs,
		Labels:         a.labels,
		PredictedClass: idx,
	}, nil
}

// load returns the shared artifacts, loading them on first use. A failed
// load is not cached.
func (s *InferenceServiceImpl) load(ctx context.Context) (*artifacts, error) {
	if a := s.loaded.Load(); a != nil {
		return a, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a := s.loaded.Load(); a != nil {
		return a, nil
	}

	a, err := s.loadArtifacts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "model artifacts unavailable", "error", err)
		return nil, domain.WrapError(domain.KindNotReady, domain.ErrModelNotReady.Message, err)
	}
	s.loaded.Store(a)
	s.logger.InfoContext(ctx, "model artifacts loaded", "classes", len(a.classes))
	return a, nil
}

func (s *InferenceServiceImpl) loadArtifacts(ctx context.Context) (*artifacts, error) {
	classifier, scaler, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	n := classifier.NumClasses()
	classes, err := s.classes(n)
	if err != nil {
		return nil, err
	}
	if len(classes) != n {
		return nil, fmt.Errorf("classifier has %d outputs but the class table has %d entries", n, len(classes))
	}

	labels := make([]domain.RiskLevel, len(classes))
	for i, c := range classes {
		labels[i] = c.Label
	}
	return &artifacts{
		classifier: classifier,
		scaler:     scaler,
		classes:    classes,
		labels:     labels,
	}, nil
}

// normalise checks the distribution and rescales it to sum to exactly 1.
// Tiny negative values from float error are clamped to 0.
func normalise(probs []float64, want int) ([]float64, error) {
	if len(probs) != want {
		return nil, fmt.Errorf("expected %d probabilities, got %d", want, len(probs))
	}

	out := make([]float64, len(probs))
	var sum float64
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("probability %d is not finite", i)
		}
		if p < 0 {
			if p < -1e-9 {
				return nil, fmt.Errorf("probability %d is negative: %v", i, p)
			}
			p = 0
		}
		out[i] = p
		sum += p
	}
	if sum <= 0 {
		return nil, fmt.Errorf("probabilities sum to %v", sum)
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}
