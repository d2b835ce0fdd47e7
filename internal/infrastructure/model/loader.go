package model

import (
	"context"
	"fmt"

	"github.com/you/glucopredict/domain"
)

// Loader reads the classifier and scaler from a Source
type Loader struct {
	source     Source
	modelPath  string
	scalerPath string
}

// NewLoader creates an artifact loader
func NewLoader(source Source, modelPath, scalerPath string) domain.ArtifactLoader {
	return &Loader{source: source, modelPath: modelPath, scalerPath: scalerPath}
}

// Load implements domain.ArtifactLoader
func (l *Loader) Load(ctx context.Context) (domain.Classifier, domain.Scaler, error) {
	modelBytes, err := l.source.Fetch(ctx, l.modelPath)
	if err != nil {
		return nil, nil, err
	}
	net, err := ParseDenseNetwork(modelBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", l.modelPath, err)
	}

	scalerBytes, err := l.source.Fetch(ctx, l.scalerPath)
	if err != nil {
		return nil, nil, err
	}
	scaler, err := ParseStandardScaler(scalerBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", l.scalerPath, err)
	}
	return net, scaler, nil
}
