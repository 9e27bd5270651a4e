package sentiment

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"sentiment-analysis-service/internal/dataset"
	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/features"
)

// Evaluate compares predictions against ground truth and produces accuracy,
// per-class precision/recall/F1 and the macro-averaged F1. Classes absent
// from both slices score zero rather than NaN.
func Evaluate(predicted, actual []domain.Sentiment) (domain.EvaluationReport, error) {
	if len(predicted) != len(actual) {
		return domain.EvaluationReport{}, fmt.Errorf("prediction count %d does not match label count %d", len(predicted), len(actual))
	}
	if len(actual) == 0 {
		return domain.EvaluationReport{}, domain.ErrEmptyDataset
	}

	confusion := make([][]int, domain.NumClasses)
	for i := range confusion {
		confusion[i] = make([]int, domain.NumClasses)
	}
	correct := 0
	for i := range actual {
		a, p := actual[i].ClassIndex(), predicted[i].ClassIndex()
		confusion[a][p]++
		if a == p {
			correct++
		}
	}

	report := domain.EvaluationReport{
		Accuracy:    float64(correct) / float64(len(actual)),
		Confusion:   confusion,
		SampleCount: len(actual),
		EvaluatedAt: time.Now().UTC(),
	}

	var f1Sum float64
	for class := 0; class < domain.NumClasses; class++ {
		label, err := domain.SentimentFromClass(class)
		if err != nil {
			return domain.EvaluationReport{}, err
		}
		var tp, fp, fn, support int
		for other := 0; other < domain.NumClasses; other++ {
			support += confusion[class][other]
			if other == class {
				tp = confusion[class][class]
				continue
			}
			fp += confusion[other][class]
			fn += confusion[class][other]
		}
		metrics := domain.ClassMetrics{Label: label, Support: support}
		if tp+fp > 0 {
			metrics.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			metrics.Recall = float64(tp) / float64(tp+fn)
		}
		if metrics.Precision+metrics.Recall > 0 {
			metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
		}
		f1Sum += metrics.F1
		report.PerClass = append(report.PerClass, metrics)
	}
	report.MacroF1 = f1Sum / float64(domain.NumClasses)

	return report, nil
}

// EvaluateDataset runs the predictor across a labelled dataset and scores the
// results. Rows the predictor cannot classify fail the evaluation: a metrics
// report must cover every labelled sample.
func EvaluateDataset(ctx context.Context, p *Predictor, ds *dataset.Dataset) (domain.EvaluationReport, error) {
	predicted := make([]domain.Sentiment, len(ds.Rows))
	actual := make([]domain.Sentiment, len(ds.Rows))
	for i, row := range ds.Rows {
		pred, err := p.Predict(ctx, row.Text)
		if err != nil {
			return domain.EvaluationReport{}, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		predicted[i] = pred.Sentiment
		actual[i] = row.Label
	}
	return Evaluate(predicted, actual)
}

// EvaluateArtifacts scores the serialized pipeline at dir against a labelled
// dataset. Training uses it to measure model.txt and vectorizer.json as
// written, before the manifest seals the bundle.
func EvaluateArtifacts(ctx context.Context, dir string, ds *dataset.Dataset) (domain.EvaluationReport, error) {
	vec, err := features.LoadVectorizer(filepath.Join(dir, domain.ArtifactVectorizer))
	if err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("load vectorizer: %w", err)
	}
	inf, err := LoadEngine(filepath.Join(dir, domain.ArtifactModel))
	if err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("load model: %w", err)
	}

	predicted := make([]domain.Sentiment, len(ds.Rows))
	actual := make([]domain.Sentiment, len(ds.Rows))
	for i, row := range ds.Rows {
		if err := ctx.Err(); err != nil {
			return domain.EvaluationReport{}, err
		}
		pred, err := predictOne(vec, inf, row.Text)
		if err != nil {
			return domain.EvaluationReport{}, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		predicted[i] = pred.Sentiment
		actual[i] = row.Label
	}
	return Evaluate(predicted, actual)
}
