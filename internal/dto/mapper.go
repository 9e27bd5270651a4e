package dto

import (
	"time"

	"sentiment-analysis-service/internal/domain"
)

func FromPrediction(p domain.Prediction) PredictionResponse {
	return PredictionResponse{
		Text:           p.Text,
		Sentiment:      int(p.Sentiment),
		SentimentLabel: p.Sentiment.String(),
		Confidence:     p.Confidence,
		Timestamp:      p.Timestamp.UTC().Format(time.RFC3339),
	}
}

func FromPredictions(preds []domain.Prediction) BatchPredictionResponse {
	out := BatchPredictionResponse{
		Predictions: make([]PredictionResponse, 0, len(preds)),
		TotalCount:  len(preds),
	}
	for _, p := range preds {
		out.Predictions = append(out.Predictions, FromPrediction(p))
	}
	return out
}

func FromModelInfo(info domain.ModelInfo) ModelInfoResponse {
	return ModelInfoResponse{
		ModelType:      info.ModelType,
		ModelVersion:   info.ModelVersion,
		LoadedAt:       info.LoadedAt.UTC().Format(time.RFC3339),
		VocabularySize: info.VocabularySize,
		NumTrees:       info.NumTrees,
		NumClasses:     info.NumClasses,
	}
}
