package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/logging"
)

// PredictionServiceImpl implements domain.PredictionService
type PredictionServiceImpl struct {
	inference   domain.InferenceService
	predictions domain.PredictionRepository
	users       domain.UserRepository
	accuracy    float64
	logger      *slog.Logger
	now         func() time.Time
}

// NewPredictionService creates a new prediction service. accuracy is the
// reported model accuracy in percent.
func NewPredictionService(
	inference domain.InferenceService,
	predictions domain.PredictionRepository,
	users domain.UserRepository,
	accuracy float64,
	log *slog.Logger,
) domain.PredictionService {
	return &PredictionServiceImpl{
		inference:   inference,
		predictions: predictions,
		users:       users,
		accuracy:    accuracy,
		logger:      logging.OrNop(log).With("component", "prediction_service"),
		now:         time.Now,
	}
}

// Classify implements domain.PredictionService. A nil identity skips persistence.
func (s *PredictionServiceImpl) Classify(ctx context.Context, identity *domain.User, raw map[string]any) (*domain.PredictionResponse, error) {
	features, err := ParseFeatures(raw)
	if err != nil {
		return nil, err
	}

	start := s.now()
	result, err := s.inference.Predict(ctx, features.Vector())
	if err != nil {
		return nil, err
	}
	latency := roundTo(float64(s.now().Sub(start).Microseconds())/1000, 2)

	resp := &domain.PredictionResponse{
		Risk:           result.Risk,
		Message:        result.Message,
		Probabilities:  result.ProbabilityMap(),
		PredictedClass: result.PredictedClass,
		ModelAccuracy:  s.accuracy,
		ResponseTimeMs: latency,
	}

	if identity == nil {
		return resp, nil
	}

	record, err := s.predictions.Record(ctx, identity.ID, features, result, s.accuracy, latency)
	if err != nil {
		s.logger.WarnContext(ctx, "prediction not saved", "user_id", identity.ID, "error", err)
		return resp, nil
	}
	resp.PredictionID = record.ID
	s.users.IncrementPredictionCount(ctx, identity.ID)
	return resp, nil
}

// History implements domain.PredictionService and reports the limit applied.
func (s *PredictionServiceImpl) History(ctx context.Context, user *domain.User, limit, skip int) ([]domain.Prediction, int, error) {
	if user == nil {
		return nil, 0, domain.ErrUnauthorized
	}
	limit, skip = domain.ClampPaging(limit, skip)
	list, err := s.predictions.ListForUser(ctx, user.ID, limit, skip)
	if err != nil {
		return nil, limit, err
	}
	return list, limit, nil
}

// Stats implements domain.PredictionService
func (s *PredictionServiceImpl) Stats(ctx context.Context, user *domain.User) (*domain.PredictionStats, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.predictions.StatsForUser(ctx, user.ID)
}

// ParseFeatures reads the eight measurements from a decoded JSON body.
// Every field is checked for presence before any value is converted.
func ParseFeatures(raw map[string]any) (domain.Features, error) {
	for _, name := range domain.FeatureOrder {
		if _, ok := raw[name]; !ok {
			return domain.Features{}, domain.ValidationError(name, "Missing field: "+name)
		}
	}

	values := make([]float64, domain.FeatureCount)
	for i, name := range domain.FeatureOrder {
		v, ok := toFloat(raw[name])
		if !ok {
			return domain.Features{}, domain.ValidationError(name, "Invalid value for field: "+name)
		}
		values[i] = v
	}
	return domain.FeaturesFromVector(values)
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
