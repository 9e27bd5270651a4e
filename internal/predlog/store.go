// Package predlog persists served predictions to Postgres for offline
// inspection and drift analysis. It is optional: without a DSN the service
// runs with the no-op store.
package predlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"sentiment-analysis-service/internal/config"
	"sentiment-analysis-service/internal/domain"
)

// Entry is one served prediction.
type Entry struct {
	ID           uuid.UUID
	RequestID    string
	Endpoint     string
	Text         string
	Sentiment    domain.Sentiment
	Confidence   float64
	ModelVersion string
	Duration     time.Duration
	CreatedAt    time.Time
}

// NewEntry builds a log entry from a prediction and its request context.
func NewEntry(requestID, endpoint, modelVersion string, pred domain.Prediction, duration time.Duration) Entry {
	return Entry{
		ID:           uuid.New(),
		RequestID:    requestID,
		Endpoint:     endpoint,
		Text:         pred.Text,
		Sentiment:    pred.Sentiment,
		Confidence:   pred.Confidence,
		ModelVersion: modelVersion,
		Duration:     duration,
		CreatedAt:    pred.Timestamp,
	}
}

// Store records served predictions.
type Store interface {
	Record(ctx context.Context, entries ...Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close()
}

type pgStore struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// New connects to Postgres, ensures the predictions table exists and returns
// the store.
func New(ctx context.Context, cfg config.PredLogConfig, logger *logrus.Logger) (Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse prediction log DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect prediction log: %w", err)
	}
	s := &pgStore{pool: pool, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("prediction log connected")
	return s, nil
}

func (s *pgStore) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS predictions (
			id            UUID PRIMARY KEY,
			request_id    TEXT NOT NULL,
			endpoint      TEXT NOT NULL,
			text_body     TEXT NOT NULL,
			sentiment     SMALLINT NOT NULL,
			confidence    DOUBLE PRECISION NOT NULL,
			model_version TEXT NOT NULL,
			duration_ms   BIGINT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure predictions table: %w", err)
	}
	return nil
}

func (s *pgStore) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `
		INSERT INTO predictions
			(id, request_id, endpoint, text_body, sentiment, confidence,
			 model_version, duration_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	for _, e := range entries {
		_, err := s.pool.Exec(ctx, query,
			e.ID, e.RequestID, e.Endpoint, e.Text, int(e.Sentiment),
			e.Confidence, e.ModelVersion, e.Duration.Milliseconds(), e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("record prediction: %w", err)
		}
	}
	return nil
}

func (s *pgStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, request_id, endpoint, text_body, sentiment, confidence,
		       model_version, duration_ms, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var sentiment int
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Endpoint, &e.Text, &sentiment,
			&e.Confidence, &e.ModelVersion, &durationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		label, err := domain.ParseSentiment(sentiment)
		if err != nil {
			return nil, err
		}
		e.Sentiment = label
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *pgStore) Close() {
	s.pool.Close()
}

// NewNop returns a store that drops everything, for when no DSN is set.
func NewNop() Store {
	return nopStore{}
}

type nopStore struct{}

func (nopStore) Record(ctx context.Context, entries ...Entry) error     { return nil }
func (nopStore) Recent(ctx context.Context, limit int) ([]Entry, error) { return nil, nil }
func (nopStore) Close()                                                 {}
