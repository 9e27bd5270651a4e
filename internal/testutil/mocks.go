package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/predlog"
)

// MockPredictor is a mock of handler.Predictor.
type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, text string) (domain.Prediction, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return domain.Prediction{}, args.Error(1)
	}
	return args.Get(0).(domain.Prediction), args.Error(1)
}

func (m *MockPredictor) PredictBatch(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Prediction), args.Error(1)
}

func (m *MockPredictor) Info() (domain.ModelInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return domain.ModelInfo{}, args.Error(1)
	}
	return args.Get(0).(domain.ModelInfo), args.Error(1)
}

func (m *MockPredictor) Loaded() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockPredictionStore is a mock of predlog.Store.
type MockPredictionStore struct {
	mock.Mock
}

func (m *MockPredictionStore) Record(ctx context.Context, entries ...predlog.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockPredictionStore) Recent(ctx context.Context, limit int) ([]predlog.Entry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]predlog.Entry), args.Error(1)
}

func (m *MockPredictionStore) Close() {
	m.Called()
}
