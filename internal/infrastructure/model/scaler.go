package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/you/glucopredict/domain"
)

type scalerFile struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// StandardScaler computes (x - mean) / scale per feature
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// ParseStandardScaler decodes a fitted scaler. A zero scale is stored as 1,
// matching a constant training column.
func ParseStandardScaler(data []byte) (*StandardScaler, error) {
	var doc scalerFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if doc.FeatureNames != nil {
		if err := checkFeatureOrder(doc.FeatureNames); err != nil {
			return nil, fmt.Errorf("scaler: %w", err)
		}
	}
	return NewStandardScaler(doc.Mean, doc.Scale)
}

// NewStandardScaler builds a scaler from fitted means and scales
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) != domain.FeatureCount || len(scale) != domain.FeatureCount {
		return nil, fmt.Errorf("scaler needs %d means and scales, got %d and %d",
			domain.FeatureCount, len(mean), len(scale))
	}

	s := &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: make([]float64, domain.FeatureCount),
	}
	for i, v := range scale {
		if !finite(v) || !finite(mean[i]) {
			return nil, fmt.Errorf("scaler feature %d is not finite", i)
		}
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

// Transform implements domain.Scaler
func (s *StandardScaler) Transform(raw []float64) ([]float64, error) {
	if len(raw) != domain.FeatureCount {
		return nil, domain.ErrInvalidFeatureVector
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
