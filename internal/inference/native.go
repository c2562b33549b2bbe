package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// linearModelFile is the on-disk format of a JSON-serialized linear model.
// Weights may be omitted, in which case every feature weighs 1 and the model
// degenerates to a biased sum.
type linearModelFile struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// NativeBackend evaluates JSON linear models in-process, with no external
// runtime. Good for smoke tests and tiny regression models.
type NativeBackend struct {
	weights []float64
	bias    float64
}

// LoadNative reads a linear model from a JSON artifact.
func LoadNative(path string) (*NativeBackend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var m linearModelFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	return &NativeBackend{weights: m.Weights, bias: m.Bias}, nil
}

// PredictBatch evaluates each request independently. Inputs are JSON arrays
// of numbers; a malformed input fails only its own entry.
func (n *NativeBackend) PredictBatch(_ context.Context, requests []Request) []Response {
	responses := make([]Response, len(requests))
	for i, req := range requests {
		responses[i] = Response{ID: req.ID}

		var features []float64
		if err := json.Unmarshal(req.Data, &features); err != nil {
			responses[i].Err = fmt.Errorf("input must be a JSON array of numbers: %w", err)
			continue
		}

		result, err := n.evaluate(features)
		if err != nil {
			responses[i].Err = err
			continue
		}

		encoded, err := json.Marshal(result)
		if err != nil {
			responses[i].Err = err
			continue
		}
		responses[i].Result = encoded
	}
	return responses
}

func (n *NativeBackend) evaluate(features []float64) (float64, error) {
	if len(n.weights) > 0 && len(n.weights) != len(features) {
		return 0, fmt.Errorf("expected %d features, got %d", len(n.weights), len(features))
	}

	sum := n.bias
	for i, x := range features {
		w := 1.0
		if len(n.weights) > 0 {
			w = n.weights[i]
		}
		sum += w * x
	}
	return sum, nil
}
