package sentiment

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/features"
)

// Predictor owns the serving pipeline: normalized text through the fitted
// vectorizer into the inference engine. It starts empty and becomes ready
// once a bundle is loaded; a later LoadBundle swaps the pipeline atomically,
// so reloads do not disturb in-flight predictions.
type Predictor struct {
	logger *logrus.Logger

	mu       sync.RWMutex
	vec      *features.Vectorizer
	inf      Inferencer
	manifest domain.BundleManifest
	loadedAt time.Time
}

func NewPredictor(logger *logrus.Logger) *Predictor {
	return &Predictor{logger: logger}
}

// LoadBundle verifies the bundle at dir and installs its pipeline.
func (p *Predictor) LoadBundle(dir string) error {
	manifest, err := ReadBundle(dir)
	if err != nil {
		return err
	}
	vec, err := features.LoadVectorizer(filepath.Join(dir, domain.ArtifactVectorizer))
	if err != nil {
		return fmt.Errorf("load vectorizer: %w", err)
	}
	inf, err := LoadEngine(filepath.Join(dir, domain.ArtifactModel))
	if err != nil {
		return err
	}
	p.install(vec, inf, manifest)
	p.logger.WithFields(logrus.Fields{
		"bundle":        dir,
		"model_version": manifest.ModelVersion,
		"vocabulary":    vec.VocabularySize(),
		"trees":         inf.NumTrees(),
	}).Info("model bundle loaded")
	return nil
}

func (p *Predictor) install(vec *features.Vectorizer, inf Inferencer, manifest domain.BundleManifest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vec = vec
	p.inf = inf
	p.manifest = manifest
	p.loadedAt = time.Now().UTC()
}

// Loaded reports whether a model bundle has been installed.
func (p *Predictor) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inf != nil
}

// Predict classifies a single text. Confidence is the probability of the
// winning class.
func (p *Predictor) Predict(ctx context.Context, text string) (domain.Prediction, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Prediction{}, domain.ErrEmptyText
	}
	p.mu.RLock()
	vec, inf := p.vec, p.inf
	p.mu.RUnlock()
	if inf == nil {
		return domain.Prediction{}, domain.ErrModelNotLoaded
	}
	return predictOne(vec, inf, text)
}

// PredictBatch classifies up to domain.MaxBatchSize texts concurrently.
// Items that fail are logged and skipped, so the result can be shorter than
// the input; relative order of the surviving items is preserved.
func (p *Predictor) PredictBatch(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	if len(texts) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if len(texts) > domain.MaxBatchSize {
		return nil, domain.ErrBatchTooLarge
	}
	p.mu.RLock()
	vec, inf := p.vec, p.inf
	p.mu.RUnlock()
	if inf == nil {
		return nil, domain.ErrModelNotLoaded
	}

	results := make([]*domain.Prediction, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				p.logger.WithField("item", i).Warn("skipping empty batch item")
				return nil
			}
			pred, err := predictOne(vec, inf, text)
			if err != nil {
				p.logger.WithField("item", i).WithError(err).Warn("skipping failed batch item")
				return nil
			}
			results[i] = &pred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Prediction, 0, len(texts))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Info describes the currently loaded pipeline.
func (p *Predictor) Info() (domain.ModelInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.inf == nil {
		return domain.ModelInfo{}, domain.ErrModelNotLoaded
	}
	return domain.ModelInfo{
		ModelType:      p.inf.Name(),
		ModelVersion:   p.manifest.ModelVersion,
		LoadedAt:       p.loadedAt,
		VocabularySize: p.vec.VocabularySize(),
		NumTrees:       p.inf.NumTrees(),
		NumClasses:     p.inf.NumClasses(),
	}, nil
}

func predictOne(vec *features.Vectorizer, inf Inferencer, text string) (domain.Prediction, error) {
	row, err := vec.TransformOne(text)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("%w: %v", domain.ErrPredictionFailed, err)
	}
	probs, err := inf.Probabilities(row)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("%w: %v", domain.ErrPredictionFailed, err)
	}
	label, err := domain.SentimentFromClass(floats.MaxIdx(probs))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("%w: %v", domain.ErrPredictionFailed, err)
	}
	return domain.Prediction{
		Text:       text,
		Sentiment:  label,
		Confidence: floats.Max(probs),
		Timestamp:  time.Now().UTC(),
	}, nil
}
