package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/you/glucopredict/domain"
)

// FormatDense identifies the exported feed-forward network format
const FormatDense = "dense-v1"

// Activation names accepted in a layer definition
const (
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
	ActivationLinear  = "linear"
	ActivationSoftmax = "softmax"
)

// Layer is one fully connected layer: weights[out][in], bias[out]
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

type denseFile struct {
	Format        string   `json:"format"`
	InputFeatures []string `json:"input_features"`
	Layers        []Layer  `json:"layers"`
}

// DenseNetwork is an immutable feed-forward classifier
type DenseNetwork struct {
	layers  []Layer
	binary  bool
	classes int
}

// ParseDenseNetwork decodes and validates a dense-v1 document.
func ParseDenseNetwork(data []byte) (*DenseNetwork, error) {
	var doc denseFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	if doc.Format != FormatDense {
		return nil, fmt.Errorf("unsupported classifier format %q", doc.Format)
	}
	if err := checkFeatureOrder(doc.InputFeatures); err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return NewDenseNetwork(doc.Layers)
}

// NewDenseNetwork validates layers taking the eight features in training order.
func NewDenseNetwork(layers []Layer) (*DenseNetwork, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("classifier has no layers")
	}

	in := domain.FeatureCount
	for i, l := range layers {
		if len(l.Weights) == 0 {
			return nil, fmt.Errorf("layer %d has no units", i)
		}
		if len(l.Bias) != len(l.Weights) {
			return nil, fmt.Errorf("layer %d: %d bias values for %d units", i, len(l.Bias), len(l.Weights))
		}
		for u, row := range l.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("layer %d unit %d: expected %d inputs, got %d", i, u, in, len(row))
			}
		}
		switch l.Activation {
		case ActivationReLU, ActivationSigmoid, ActivationTanh, ActivationLinear:
		case ActivationSoftmax:
			if i != len(layers)-1 {
				return nil, fmt.Errorf("layer %d: softmax is only allowed on the output layer", i)
			}
		default:
			return nil, fmt.Errorf("layer %d: unknown activation %q", i, l.Activation)
		}
		in = len(l.Weights)
	}

	last := layers[len(layers)-1]
	net := &DenseNetwork{layers: layers}
	switch {
	case len(last.Weights) == 1 && last.Activation == ActivationSigmoid:
		net.binary = true
		net.classes = 2
	case len(last.Weights) >= 2 && last.Activation == ActivationSoftmax:
		net.classes = len(last.Weights)
	default:
		return nil, fmt.Errorf("output layer must be a single sigmoid unit or a softmax over at least 2 units")
	}
	return net, nil
}

// NumClasses implements domain.Classifier
func (n *DenseNetwork) NumClasses() int {
	return n.classes
}

// PredictProba implements domain.Classifier
func (n *DenseNetwork) PredictProba(scaled []float64) ([]float64, error) {
	if len(scaled) != domain.FeatureCount {
		return nil, domain.ErrInvalidFeatureVector
	}

	x := scaled
	for _, l := range n.layers {
		out := make([]float64, len(l.Weights))
		for u, row := range l.Weights {
			sum := l.Bias[u]
			for j, w := range row {
				sum += w * x[j]
			}
			out[u] = sum
		}
		activate(l.Activation, out)
		x = out
	}

	if n.binary {
		return []float64{1 - x[0], x[0]}, nil
	}
	return x, nil
}

func activate(name string, v []float64) {
	switch name {
	case ActivationReLU:
		for i := range v {
			v[i] = math.Max(0, v[i])
		}
	case ActivationSigmoid:
		for i := range v {
			v[i] = 1 / (1 + math.Exp(-v[i]))
		}
	case ActivationTanh:
		for i := range v {
			v[i] = math.Tanh(v[i])
		}
	case ActivationSoftmax:
		softmax(v)
	}
}

func softmax(v []float64) {
	hi := math.Inf(-1)
	for _, x := range v {
		hi = math.Max(hi, x)
	}
	var sum float64
	for i := range v {
		v[i] = math.Exp(v[i] - hi)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}

func checkFeatureOrder(names []string) error {
	if len(names) != domain.FeatureCount {
		return fmt.Errorf("expected %d input features, got %d", domain.FeatureCount, len(names))
	}
	for i, name := range names {
		if name != domain.FeatureOrder[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, name, domain.FeatureOrder[i])
		}
	}
	return nil
}
