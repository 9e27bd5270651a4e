package domain

import "time"

// MaxBatchSize caps the number of texts accepted by a single batch
// prediction request.
const MaxBatchSize = 100

// Prediction is the outcome of classifying a single text.
type Prediction struct {
	Text       string    `json:"text"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// ModelInfo describes the currently loaded model artifacts.
type ModelInfo struct {
	ModelType      string    `json:"model_type"`
	ModelVersion   string    `json:"model_version"`
	LoadedAt       time.Time `json:"loaded_at"`
	VocabularySize int       `json:"vocabulary_size"`
	NumTrees       int       `json:"num_trees"`
	NumClasses     int       `json:"num_classes"`
}
