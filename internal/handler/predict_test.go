package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/middleware"
	"sentiment-analysis-service/internal/testutil"
)

func setupRouter() (*testutil.MockPredictor, *testutil.MockPredictionStore, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	predictor := new(testutil.MockPredictor)
	store := new(testutil.MockPredictionStore)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := New(predictor, store, logger)
	r := gin.New()
	r.Use(middleware.RequestID())
	h.RegisterRoutes(r)

	// The prediction log is written from a goroutine after the response, so
	// tests never require it, they only allow it.
	store.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()

	return predictor, store, r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPredict(t *testing.T) {
	predictor, _, r := setupRouter()

	pred := domain.Prediction{
		Text:       "great launch",
		Sentiment:  domain.SentimentPositive,
		Confidence: 0.93,
		Timestamp:  time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
	}
	predictor.On("Predict", mock.Anything, "great launch").Return(pred, nil)
	predictor.On("Info").Return(domain.ModelInfo{ModelVersion: "v1"}, nil).Maybe()

	w := postJSON(r, "/predict", `{"text":"great launch"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "great launch", resp["text"])
	assert.Equal(t, float64(1), resp["sentiment"])
	assert.Equal(t, "positive", resp["sentiment_label"])
	assert.InDelta(t, 0.93, resp["confidence"].(float64), 1e-9)
	assert.Equal(t, "2026-08-26T12:00:00Z", resp["timestamp"])
}

func TestPredictValidation(t *testing.T) {
	_, _, r := setupRouter()

	tests := []struct {
		name string
		body string
	}{
		{"missing text", `{}`},
		{"empty text", `{"text":""}`},
		{"not json", `text=hello`},
		{"wrong type", `{"text": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/predict", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPredictWhitespaceTextMapsToBadRequest(t *testing.T) {
	predictor, _, r := setupRouter()
	predictor.On("Predict", mock.Anything, "   ").Return(nil, domain.ErrEmptyText)

	w := postJSON(r, "/predict", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrEmptyText.Error())
}

func TestPredictModelNotLoaded(t *testing.T) {
	predictor, _, r := setupRouter()
	predictor.On("Predict", mock.Anything, "hello").Return(nil, domain.ErrModelNotLoaded)

	w := postJSON(r, "/predict", `{"text":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPredictFailureHidesDetails(t *testing.T) {
	predictor, _, r := setupRouter()
	predictor.On("Predict", mock.Anything, "hello").
		Return(nil, fmt.Errorf("%w: boom", domain.ErrPredictionFailed))

	w := postJSON(r, "/predict", `{"text":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestPredictBatch(t *testing.T) {
	predictor, _, r := setupRouter()

	preds := []domain.Prediction{
		{Text: "good", Sentiment: domain.SentimentPositive, Confidence: 0.9, Timestamp: time.Now().UTC()},
		{Text: "bad", Sentiment: domain.SentimentNegative, Confidence: 0.8, Timestamp: time.Now().UTC()},
	}
	// Three in, two out: the middle item was skipped by the predictor.
	predictor.On("PredictBatch", mock.Anything, []string{"good", "???", "bad"}).Return(preds, nil)
	predictor.On("Info").Return(domain.ModelInfo{ModelVersion: "v1"}, nil).Maybe()

	w := postJSON(r, "/predict/batch", `{"texts":["good","???","bad"]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Predictions []map[string]interface{} `json:"predictions"`
		TotalCount  int                      `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalCount)
	require.Len(t, resp.Predictions, 2)
	assert.Equal(t, "positive", resp.Predictions[0]["sentiment_label"])
	assert.Equal(t, "negative", resp.Predictions[1]["sentiment_label"])
}

func TestPredictBatchValidation(t *testing.T) {
	_, _, r := setupRouter()

	w := postJSON(r, "/predict/batch", `{"texts":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	oversize := `{"texts":["` + strings.Repeat(`x","`, domain.MaxBatchSize) + `x"]}`
	w = postJSON(r, "/predict/batch", oversize)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictBatchDomainLimit(t *testing.T) {
	predictor, _, r := setupRouter()
	predictor.On("PredictBatch", mock.Anything, mock.Anything).Return(nil, domain.ErrBatchTooLarge)

	w := postJSON(r, "/predict/batch", `{"texts":["a","b"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at most 100")
}

func TestDrainWaitsForPendingLogWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	predictor := new(testutil.MockPredictor)
	store := new(testutil.MockPredictionStore)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := New(predictor, store, logger)
	r := gin.New()
	r.Use(middleware.RequestID())
	h.RegisterRoutes(r)

	release := make(chan struct{})
	store.On("Record", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).Return(nil).Once()
	predictor.On("Predict", mock.Anything, "great").Return(domain.Prediction{
		Text:      "great",
		Sentiment: domain.SentimentPositive,
		Timestamp: time.Now().UTC(),
	}, nil)
	predictor.On("Info").Return(domain.ModelInfo{ModelVersion: "v1"}, nil).Maybe()

	w := postJSON(r, "/predict", `{"text":"great"}`)
	require.Equal(t, http.StatusOK, w.Code)

	done := make(chan struct{})
	go func() {
		h.Drain()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("drain returned while a log write was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain did not return after the log write finished")
	}
	store.AssertExpectations(t)
}

func TestModelInfo(t *testing.T) {
	predictor, _, r := setupRouter()
	predictor.On("Info").Return(domain.ModelInfo{
		ModelType:      "lightgbm.gbdt",
		ModelVersion:   "v20260826-120000",
		LoadedAt:       time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		VocabularySize: 5000,
		NumTrees:       600,
		NumClasses:     3,
	}, nil)

	req, _ := http.NewRequest(http.MethodGet, "/model/info", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "lightgbm.gbdt", resp["model_type"])
	assert.Equal(t, "v20260826-120000", resp["model_version"])
	assert.Equal(t, float64(5000), resp["vocabulary_size"])
	assert.Equal(t, float64(600), resp["num_trees"])
	assert.Equal(t, float64(3), resp["num_classes"])
}

func TestModelInfoWithoutModel(t *testing.T) {
	predictor, _, r := setupRouter()
	predictor.On("Info").Return(nil, domain.ErrModelNotLoaded)

	req, _ := http.NewRequest(http.MethodGet, "/model/info", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
