package dto

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Text string `json:"text" binding:"required,min=1,max=10000"`
}

// BatchPredictRequest is the body of POST /predict/batch. The item cap
// matches domain.MaxBatchSize.
type BatchPredictRequest struct {
	Texts []string `json:"texts" binding:"required,min=1,max=100,dive,max=10000"`
}

type PredictionResponse struct {
	Text           string  `json:"text"`
	Sentiment      int     `json:"sentiment"`
	SentimentLabel string  `json:"sentiment_label"`
	Confidence     float64 `json:"confidence"`
	Timestamp      string  `json:"timestamp"`
}

type BatchPredictionResponse struct {
	Predictions []PredictionResponse `json:"predictions"`
	TotalCount  int                  `json:"total_count"`
}

type ModelInfoResponse struct {
	ModelType      string `json:"model_type"`
	ModelVersion   string `json:"model_version"`
	LoadedAt       string `json:"loaded_at"`
	VocabularySize int    `json:"vocabulary_size"`
	NumTrees       int    `json:"num_trees"`
	NumClasses     int    `json:"num_classes"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version"`
	Timestamp    string `json:"timestamp"`
}

type RootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}
