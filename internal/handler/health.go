package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sentiment-analysis-service/internal/dto"
)

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, dto.RootResponse{
		Service: "sentiment-analysis-service",
		Version: serviceVersion,
		Docs:    "/docs",
		Health:  "/health",
	})
}

// Health always answers 200; the body says whether a model is loaded. Meant
// for humans and dashboards.
func (h *Handler) Health(c *gin.Context) {
	loaded := h.predictor.Loaded()
	status := "healthy"
	if !loaded {
		status = "unhealthy"
	}
	version := "unknown"
	if info, err := h.predictor.Info(); err == nil {
		version = info.ModelVersion
	}
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:       status,
		ModelLoaded:  loaded,
		ModelVersion: version,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}

// Healthz is the orchestrator probe: 503 until the model is ready to serve.
func (h *Handler) Healthz(c *gin.Context) {
	if !h.predictor.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
