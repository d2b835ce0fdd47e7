package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/infrastructure/model"
)

var emailSeq atomic.Int64

// uniqueEmail returns a fresh address per call
func uniqueEmail() string {
	return fmt.Sprintf("e2e-user-%d@example.com", emailSeq.Add(1))
}

// writeArtifacts writes an identity scaler and a logistic model that
// scores high risk once glucose passes 120.
func writeArtifacts(t *testing.T, dir string) (modelPath, scalerPath string) {
	t.Helper()

	weights := make([]float64, domain.FeatureCount)
	weights[1] = 0.05 // glucose

	network := map[string]any{
		"format":         model.FormatDense,
		"input_features": domain.FeatureOrder[:],
		"layers": []model.Layer{{
			Weights:    [][]float64{weights},
			Bias:       []float64{-6},
			Activation: model.ActivationSigmoid,
		}},
	}

	mean := make([]float64, domain.FeatureCount)
	scale := make([]float64, domain.FeatureCount)
	for i := range scale {
		scale[i] = 1
	}
	scaler := map[string]any{
		"feature_names": domain.FeatureOrder[:],
		"mean":          mean,
		"scale":         scale,
	}

	modelPath = filepath.Join(dir, "diabetes_model.json")
	scalerPath = filepath.Join(dir, "scaler.json")
	writeJSON(t, modelPath, network)
	writeJSON(t, scalerPath, scaler)
	return modelPath, scalerPath
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// features returns a complete request body with the given glucose reading
func features(glucose float64) map[string]any {
	return map[string]any{
		"pregnancies":      2,
		"glucose":          glucose,
		"bloodPressure":    72,
		"skinThickness":    35,
		"insulin":          0,
		"bmi":              33.6,
		"diabetesPedigree": 0.627,
		"age":              50,
	}
}
