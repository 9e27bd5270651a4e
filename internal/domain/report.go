package domain

import "time"

// ClassMetrics holds per-class evaluation results.
type ClassMetrics struct {
	Label     Sentiment `json:"label"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1"`
	Support   int       `json:"support"`
}

// EvaluationReport is the metrics record written by `sentiment evaluate` and
// logged to the tracking server.
type EvaluationReport struct {
	Accuracy    float64        `json:"accuracy"`
	MacroF1     float64        `json:"macro_f1"`
	PerClass    []ClassMetrics `json:"per_class"`
	Confusion   [][]int        `json:"confusion_matrix"` // rows: actual, cols: predicted, class order -1,0,1
	SampleCount int            `json:"sample_count"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
}

// Flatten returns the report as metric name/value pairs for tracking.
func (r EvaluationReport) Flatten() map[string]float64 {
	m := map[string]float64{
		"accuracy": r.Accuracy,
		"macro_f1": r.MacroF1,
	}
	for _, c := range r.PerClass {
		name := c.Label.String()
		m["precision_"+name] = c.Precision
		m["recall_"+name] = c.Recall
		m["f1_"+name] = c.F1
	}
	return m
}
