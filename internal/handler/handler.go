package handler

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/predlog"
)

// serviceVersion is reported by the root endpoint and the OpenAPI document.
const serviceVersion = "1.0.0"

// Predictor is the serving surface the HTTP layer depends on.
type Predictor interface {
	Predict(ctx context.Context, text string) (domain.Prediction, error)
	PredictBatch(ctx context.Context, texts []string) ([]domain.Prediction, error)
	Info() (domain.ModelInfo, error)
	Loaded() bool
}

type Handler struct {
	predictor Predictor
	records   predlog.Store
	logger    *logrus.Logger

	// pending tracks prediction log writes still in flight off the request
	// path, so shutdown can wait for them.
	pending sync.WaitGroup
}

func New(predictor Predictor, records predlog.Store, logger *logrus.Logger) *Handler {
	return &Handler{predictor: predictor, records: records, logger: logger}
}

// Drain blocks until all prediction log writes in flight have finished.
// Called during shutdown, after the server stopped accepting requests, so
// entries for already-answered requests are not dropped.
func (h *Handler) Drain() {
	h.pending.Wait()
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Healthz)
	r.GET("/docs", h.Docs)
	r.GET("/openapi.json", h.OpenAPI)

	r.POST("/predict", h.Predict)
	r.POST("/predict/batch", h.PredictBatch)
	r.GET("/model/info", h.ModelInfo)
}
