package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"sentiment-analysis-service/internal/config"
	"sentiment-analysis-service/internal/handler"
	"sentiment-analysis-service/internal/middleware"
	"sentiment-analysis-service/internal/predlog"
	"sentiment-analysis-service/internal/sentiment"
	"sentiment-analysis-service/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := initLogger(cfg)

	// Load the model bundle. A missing model is not fatal: the service comes
	// up unhealthy and reports 503 on prediction endpoints until a bundle is
	// in place.
	predictor := sentiment.NewPredictor(logger)
	if err := loadModel(context.Background(), cfg, predictor, logger); err != nil {
		logger.WithError(err).Warn("model not loaded, serving unhealthy")
	}

	// Prediction log (optional, based on config)
	records := predlog.NewNop()
	if cfg.PredLog.Enabled() {
		store, err := predlog.New(context.Background(), cfg.PredLog, logger)
		if err != nil {
			logger.WithError(err).Warn("prediction log init failed (continuing without it)")
		} else {
			records = store
			defer store.Close()
		}
	}

	h := handler.New(predictor, records, logger)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(logger), gin.Recovery())
	h.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("server forced shutdown: %v", err)
	}
	h.Drain()

	logger.Info("server stopped")
}

// loadModel installs a bundle from the tracking server when MLFLOW_MODEL_URI
// is set, otherwise from the local artifacts directory.
func loadModel(ctx context.Context, cfg *config.Config, predictor *sentiment.Predictor, logger *log.Logger) error {
	if cfg.Artifacts.ModelURI != "" {
		if !cfg.Tracking.Enabled() {
			return fmt.Errorf("MLFLOW_MODEL_URI set but MLFLOW_TRACKING_URI is not")
		}
		client, err := tracking.NewClient(cfg.Tracking, logger)
		if err != nil {
			return err
		}
		if err := client.DownloadBundle(ctx, cfg.Artifacts.ModelURI, cfg.Artifacts.Dir); err != nil {
			return fmt.Errorf("download bundle: %w", err)
		}
	}
	return predictor.LoadBundle(cfg.Artifacts.Dir)
}

func initLogger(cfg *config.Config) *log.Logger {
	logger := log.StandardLogger()

	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logger.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
