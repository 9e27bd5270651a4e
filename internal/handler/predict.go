package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/dto"
	"sentiment-analysis-service/internal/middleware"
	"sentiment-analysis-service/internal/predlog"
)

func (h *Handler) Predict(c *gin.Context) {
	var req dto.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	pred, err := h.predictor.Predict(c.Request.Context(), req.Text)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	h.record(c, "/predict", time.Since(start), pred)
	c.JSON(http.StatusOK, dto.FromPrediction(pred))
}

func (h *Handler) PredictBatch(c *gin.Context) {
	var req dto.BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	preds, err := h.predictor.PredictBatch(c.Request.Context(), req.Texts)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	h.record(c, "/predict/batch", time.Since(start), preds...)
	c.JSON(http.StatusOK, dto.FromPredictions(preds))
}

func (h *Handler) ModelInfo(c *gin.Context) {
	info, err := h.predictor.Info()
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelInfo(info))
}

// record writes served predictions to the prediction log without holding up
// the response.
func (h *Handler) record(c *gin.Context, endpoint string, took time.Duration, preds ...domain.Prediction) {
	if len(preds) == 0 {
		return
	}
	version := ""
	if info, err := h.predictor.Info(); err == nil {
		version = info.ModelVersion
	}
	requestID := middleware.GetRequestID(c)
	entries := make([]predlog.Entry, 0, len(preds))
	for _, p := range preds {
		entries = append(entries, predlog.NewEntry(requestID, endpoint, version, p, took))
	}

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.records.Record(ctx, entries...); err != nil {
			h.logger.WithError(err).Warn("prediction log write failed")
		}
	}()
}
