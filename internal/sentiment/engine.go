// Package sentiment binds the feature pipeline to the boosted-tree model:
// training through scigo's LightGBM implementation, serving through the
// leaves inference engine, plus evaluation and artifact-bundle handling.
// All of the actual learning math lives in those libraries.
package sentiment

import (
	"fmt"
	"math"

	"github.com/dmitryikh/leaves"
	"gonum.org/v1/gonum/floats"

	"sentiment-analysis-service/internal/domain"
)

// Inferencer is the serving-side view of a trained model: one feature row
// in, class probabilities out.
type Inferencer interface {
	Probabilities(row []float64) ([]float64, error)
	NumTrees() int
	NumClasses() int
	Name() string
}

// leavesEngine serves LightGBM text-format models through leaves. Raw margin
// scores are requested from the library and turned into probabilities with a
// softmax here, so serving does not depend on the transformation metadata
// stored in the model file.
type leavesEngine struct {
	ensemble *leaves.Ensemble
}

// LoadEngine reads a LightGBM model in text format.
func LoadEngine(path string) (Inferencer, error) {
	ensemble, err := leaves.LGEnsembleFromFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("load lightgbm model: %w", err)
	}
	if groups := ensemble.NOutputGroups(); groups != domain.NumClasses {
		return nil, fmt.Errorf("model predicts %d classes, want %d", groups, domain.NumClasses)
	}
	return &leavesEngine{ensemble: ensemble}, nil
}

func (e *leavesEngine) Probabilities(row []float64) ([]float64, error) {
	raw := make([]float64, e.ensemble.NOutputGroups())
	if err := e.ensemble.Predict(row, 0, raw); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return softmax(raw), nil
}

func (e *leavesEngine) NumTrees() int {
	return e.ensemble.NEstimators()
}

func (e *leavesEngine) NumClasses() int {
	return e.ensemble.NOutputGroups()
}

func (e *leavesEngine) Name() string {
	return e.ensemble.Name()
}

// softmax converts raw margin scores to probabilities. Scores are shifted by
// their maximum before exponentiation to stay numerically stable.
func softmax(raw []float64) []float64 {
	out := make([]float64, len(raw))
	max := floats.Max(raw)
	for i, v := range raw {
		out[i] = math.Exp(v - max)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
