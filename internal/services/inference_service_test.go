package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/glucopredict/domain"
)

func vector() []float64 {
	return []float64{2, 140, 80, 25, 100, 32.5, 0.6, 45}
}

func newTestInference(classifier domain.Classifier, classes []domain.ClassSpec) (*InferenceServiceImpl, *stubLoader, *identityScaler) {
	scaler := &identityScaler{}
	loader := &stubLoader{classifier: classifier, scaler: scaler}
	svc := NewInferenceService(loader, StaticClassTable(classes), nil).(*InferenceServiceImpl)
	return svc, loader, scaler
}

func TestInferenceService_Predict(t *testing.T) {
	tests := []struct {
		name      string
		probs     []float64
		wantClass int
		wantRisk  domain.RiskLevel
		wantProbs []float64
	}{
		{
			name:      "high risk",
			probs:     []float64{0.1, 0.2, 0.7},
			wantClass: 2,
			wantRisk:  domain.RiskHigh,
			wantProbs: []float64{0.1, 0.2, 0.7},
		},
		{
			name:      "tie picks lowest index",
			probs:     []float64{0.4, 0.4, 0.2},
			wantClass: 0,
			wantRisk:  domain.RiskNormal,
			wantProbs: []float64{0.4, 0.4, 0.2},
		},
		{
			name:      "unnormalised output is rescaled",
			probs:     []float64{1, 3, 0},
			wantClass: 1,
			wantRisk:  domain.RiskBorderline,
			wantProbs: []float64{0.25, 0.75, 0},
		},
		{
			name:      "tiny negative is clamped",
			probs:     []float64{-1e-12, 0.5, 0.5},
			wantClass: 1,
			wantRisk:  domain.RiskBorderline,
			wantProbs: []float64{0, 0.5, 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, scaler := newTestInference(&stubClassifier{probs: tt.probs}, testThreeClasses)

			result, err := svc.Predict(context.Background(), vector())
			require.NoError(t, err)

			assert.Equal(t, tt.wantClass, result.PredictedClass)
			assert.Equal(t, tt.wantRisk, result.Risk)
			assert.Equal(t, testThreeClasses[tt.wantClass].Message, result.Message)
			assert.InDeltaSlice(t, tt.wantProbs, result.Probabilities, 1e-12)
			assert.Equal(t, vector(), scaler.last, "scaler must see the request vector")

			var sum float64
			for _, p := range result.Probabilities {
				assert.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
			assert.Equal(t, domain.ArgMax(result.Probabilities), result.PredictedClass)
		})
	}
}

func TestInferenceService_InvalidInputs(t *testing.T) {
	svc, loader, _ := newTestInference(&stubClassifier{probs: []float64{0.5, 0.3, 0.2}}, testThreeClasses)

	nan := vector()
	nan[3] = math.NaN()
	inf := vector()
	inf[0] = math.Inf(1)

	for name, raw := range map[string][]float64{
		"short": {1, 2, 3},
		"long":  append(vector(), 1),
		"nan":   nan,
		"inf":   inf,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Predict(context.Background(), raw)
			assert.ErrorIs(t, err, domain.ErrInvalidFeatureVector)
			assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
		})
	}
	assert.Zero(t, loader.calls.Load(), "invalid input must not trigger a load")
}

func TestInferenceService_BadDistribution(t *testing.T) {
	tests := map[string][]float64{
		"wrong length": {0.5, 0.5},
		"negative":     {-0.5, 1, 0.5},
		"nan":          {math.NaN(), 0.5, 0.5},
		"all zero":     {0, 0, 0},
	}
	for name, probs := range tests {
		t.Run(name, func(t *testing.T) {
			classifier := &stubClassifier{probs: []float64{0.2, 0.3, 0.5}}
			svc, _, _ := newTestInference(classifier, testThreeClasses)
			require.NoError(t, svc.Ready(context.Background()))

			classifier.probs = probs
			_, err := svc.Predict(context.Background(), vector())
			require.Error(t, err)
			assert.Equal(t, domain.KindInternal, domain.KindOf(err))
		})
	}
}

func TestInferenceService_NotReady(t *testing.T) {
	t.Run("load failure is retried", func(t *testing.T) {
		svc, loader, _ := newTestInference(&stubClassifier{probs: []float64{0.6, 0.3, 0.1}}, testThreeClasses)
		loader.failures.Store(1)

		_, err := svc.Predict(context.Background(), vector())
		assert.Equal(t, domain.KindNotReady, domain.KindOf(err))
		assert.Equal(t, "model artifacts are not available", domain.MessageOf(err, ""))

		result, err := svc.Predict(context.Background(), vector())
		require.NoError(t, err)
		assert.Equal(t, domain.RiskNormal, result.Risk)
		assert.Equal(t, int32(2), loader.calls.Load())

		_, err = svc.Predict(context.Background(), vector())
		require.NoError(t, err)
		assert.Equal(t, int32(2), loader.calls.Load(), "a successful load is never repeated")
	})

	t.Run("class table size mismatch", func(t *testing.T) {
		svc, _, _ := newTestInference(&stubClassifier{probs: []float64{0.6, 0.4}}, testThreeClasses)
		err := svc.Ready(context.Background())
		assert.Equal(t, domain.KindNotReady, domain.KindOf(err))
	})

	t.Run("class table lookup fails", func(t *testing.T) {
		loader := &stubLoader{classifier: &stubClassifier{probs: []float64{1, 0, 0, 0, 0}}, scaler: &identityScaler{}}
		svc := NewInferenceService(loader, func(n int) ([]domain.ClassSpec, error) {
			return nil, errors.New("no table")
		}, nil)
		assert.Equal(t, domain.KindNotReady, domain.KindOf(svc.Ready(context.Background())))
	})
}

func TestInferenceService_ConcurrentFirstCallsLoadOnce(t *testing.T) {
	svc, loader, _ := newTestInference(&stubClassifier{probs: []float64{0.2, 0.2, 0.6}}, testThreeClasses)
	loader.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Predict(context.Background(), vector())
			if assert.NoError(t, err) {
				assert.Equal(t, domain.RiskHigh, result.Risk)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestInferenceService_BinaryLabels(t *testing.T) {
	binary := []domain.ClassSpec{
		{Label: domain.RiskNormal, Message: "Normal - Low Risk of Diabetes"},
		{Label: domain.RiskHigh, Message: "High Risk of Diabetes"},
	}
	svc, _, _ := newTestInference(&stubClassifier{probs: []float64{0.3, 0.7}}, binary)

	result, err := svc.Predict(context.Background(), vector())
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, result.Risk)
	probs := result.ProbabilityMap()
	assert.Len(t, probs, 2)
	assert.InDelta(t, 0.3, probs["normal"], 1e-12)
	assert.InDelta(t, 0.7, probs["high"], 1e-12)
}
