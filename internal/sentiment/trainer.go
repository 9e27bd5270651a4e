package sentiment

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"sentiment-analysis-service/internal/dataset"
	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/features"
)

// TrainParams are the LightGBM hyperparameters exposed to the CLI. The zero
// value is not useful; start from DefaultTrainParams.
type TrainParams struct {
	NumIterations int     `json:"num_iterations"`
	NumLeaves     int     `json:"num_leaves"`
	LearningRate  float64 `json:"learning_rate"`
	MaxDepth      int     `json:"max_depth"`
	MinDataInLeaf int     `json:"min_data_in_leaf"`
	Seed          int64   `json:"seed"`
}

// DefaultTrainParams is the baseline configuration the train command starts
// from; every value can be overridden by a flag.
func DefaultTrainParams() TrainParams {
	return TrainParams{
		NumIterations: 200,
		NumLeaves:     31,
		LearningRate:  0.1,
		MaxDepth:      -1,
		MinDataInLeaf: 20,
		Seed:          42,
	}
}

// Map renders the parameters as strings for run tracking and the bundle
// manifest.
func (p TrainParams) Map() map[string]string {
	return map[string]string{
		"num_iterations":   strconv.Itoa(p.NumIterations),
		"num_leaves":       strconv.Itoa(p.NumLeaves),
		"learning_rate":    strconv.FormatFloat(p.LearningRate, 'g', -1, 64),
		"max_depth":        strconv.Itoa(p.MaxDepth),
		"min_data_in_leaf": strconv.Itoa(p.MinDataInLeaf),
		"seed":             strconv.FormatInt(p.Seed, 10),
	}
}

// Trainer fits the TF-IDF vectorizer and the LightGBM classifier on a
// labelled dataset.
type Trainer struct {
	params  TrainParams
	vecOpts features.Options
	logger  *logrus.Logger
}

func NewTrainer(params TrainParams, vecOpts features.Options, logger *logrus.Logger) *Trainer {
	return &Trainer{params: params, vecOpts: vecOpts, logger: logger}
}

// TrainResult holds the fitted pipeline in memory. Save writes it to disk in
// the bundle layout; evaluation then runs against the serialized form so the
// artifacts that ship are the artifacts that were measured.
type TrainResult struct {
	Vectorizer *features.Vectorizer
	Classifier *lightgbm.LGBMClassifier
	Params     TrainParams
}

// Train fits the full pipeline. Labels are remapped from {-1,0,1} to class
// indices {0,1,2} before they reach the booster.
func (t *Trainer) Train(ds *dataset.Dataset) (*TrainResult, error) {
	if len(ds.Rows) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	vec := features.NewVectorizer(t.vecOpts)
	texts := ds.Texts()
	if err := vec.Fit(texts); err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	x, err := vec.Transform(texts)
	if err != nil {
		return nil, fmt.Errorf("transform training texts: %w", err)
	}

	y := mat.NewDense(len(ds.Rows), 1, nil)
	for i, row := range ds.Rows {
		y.Set(i, 0, float64(row.Label.ClassIndex()))
	}

	t.logger.WithFields(logrus.Fields{
		"rows":       len(ds.Rows),
		"vocabulary": vec.VocabularySize(),
		"iterations": t.params.NumIterations,
	}).Info("training lightgbm classifier")

	clf := lightgbm.NewLGBMClassifier()
	clf.NumIterations = t.params.NumIterations
	clf.NumLeaves = t.params.NumLeaves
	clf.LearningRate = t.params.LearningRate
	clf.MaxDepth = t.params.MaxDepth
	clf.MinChildSamples = t.params.MinDataInLeaf
	clf.RandomState = int(t.params.Seed)

	if err := clf.Fit(x, y); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	return &TrainResult{Vectorizer: vec, Classifier: clf, Params: t.params}, nil
}

// Save writes the vectorizer and model artifacts into dir, creating it if
// needed. The manifest is written separately once evaluation metrics exist.
func (r *TrainResult) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}
	if err := r.Vectorizer.Save(filepath.Join(dir, domain.ArtifactVectorizer)); err != nil {
		return fmt.Errorf("save vectorizer: %w", err)
	}
	if err := r.Classifier.SaveModel(filepath.Join(dir, domain.ArtifactModel)); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}
