package tracking

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-analysis-service/internal/config"
	"sentiment-analysis-service/internal/domain"
)

// mlflowStub is a minimal in-memory tracking server. It checks basic auth on
// every call and records what it was asked to store.
type mlflowStub struct {
	mu        sync.Mutex
	params    map[string]string
	metrics   map[string]float64
	runStatus string
	artifacts map[string][]byte
	mux       *http.ServeMux
}

func newMLflowStub(t *testing.T) (*mlflowStub, *httptest.Server) {
	t.Helper()
	stub := &mlflowStub{
		params:    map[string]string{},
		metrics:   map[string]float64{},
		artifacts: map[string][]byte{},
		mux:       http.NewServeMux(),
	}

	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	stub.mux.HandleFunc("/api/2.0/mlflow/experiments/get-by-name", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("experiment_name") == "existing" {
			writeJSON(w, http.StatusOK, map[string]any{"experiment": map[string]string{"experiment_id": "1"}})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": "no such experiment"})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/experiments/create", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"experiment_id": "7"})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/runs/create", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"run": map[string]any{"info": map[string]string{
			"run_id":        "run-1",
			"experiment_id": "7",
			"artifact_uri":  "mlflow-artifacts:/7/run-1/artifacts",
		}}})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/runs/get", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"run": map[string]any{"info": map[string]string{
			"run_id":        r.URL.Query().Get("run_id"),
			"experiment_id": "7",
			"artifact_uri":  "mlflow-artifacts:/7/run-1/artifacts",
		}}})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/runs/log-batch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Params []struct{ Key, Value string } `json:"params"`
			Metrics []struct {
				Key   string  `json:"key"`
				Value float64 `json:"value"`
			} `json:"metrics"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		stub.mu.Lock()
		for _, p := range body.Params {
			stub.params[p.Key] = p.Value
		}
		for _, m := range body.Metrics {
			stub.metrics[m.Key] = m.Value
		}
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/runs/update", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		stub.mu.Lock()
		stub.runStatus = body.Status
		stub.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/registered-models/create", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error_code": "RESOURCE_ALREADY_EXISTS", "message": "model exists"})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/model-versions/create", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"model_version": map[string]string{
			"name": "tweet-sentiment", "version": "3", "status": "READY",
		}})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/registered-models/get-latest-versions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"model_versions": []map[string]string{
			{"name": "tweet-sentiment", "version": "3", "current_stage": "Production"},
		}})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow/model-versions/get-download-uri", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"artifact_uri": "mlflow-artifacts:/7/run-1/artifacts/bundle"})
	})
	stub.mux.HandleFunc("/api/2.0/mlflow-artifacts/artifacts/", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path[len("/api/2.0/mlflow-artifacts/artifacts/"):]
		switch r.Method {
		case http.MethodPut:
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			stub.mu.Lock()
			stub.artifacts[key] = data
			stub.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{})
		case http.MethodGet:
			stub.mu.Lock()
			data, ok := stub.artifacts[key]
			stub.mu.Unlock()
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": key})
				return
			}
			_, _ = w.Write(data)
		}
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error_code": "UNAUTHENTICATED", "message": "bad credentials"})
			return
		}
		stub.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func newTestClient(t *testing.T, uri string) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c, err := NewClient(config.TrackingConfig{
		URI:      uri,
		Username: "alice",
		Token:    "secret",
		Timeout:  5 * time.Second,
	}, logger)
	require.NoError(t, err)
	return c
}

func TestNewClientValidatesURI(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	_, err := NewClient(config.TrackingConfig{}, logger)
	assert.Error(t, err)

	_, err = NewClient(config.TrackingConfig{URI: "ftp://mlflow"}, logger)
	assert.Error(t, err)
}

func TestExperimentIDCreatesWhenMissing(t *testing.T) {
	_, srv := newMLflowStub(t)
	c := newTestClient(t, srv.URL)

	id, err := c.ExperimentID(context.Background(), "existing")
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	id, err = c.ExperimentID(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "7", id)
}

func TestRunLifecycle(t *testing.T) {
	stub, srv := newMLflowStub(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	run, err := c.CreateRun(ctx, "7", "train-2026", map[string]string{"stage": "train"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "mlflow-artifacts:/7/run-1/artifacts", run.ArtifactURI)

	require.NoError(t, c.LogParams(ctx, run.ID, map[string]string{"num_leaves": "31"}))
	require.NoError(t, c.LogMetrics(ctx, run.ID, map[string]float64{"accuracy": 0.91}, 0))
	require.NoError(t, c.EndRun(ctx, run.ID, true))

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Equal(t, "31", stub.params["num_leaves"])
	assert.InDelta(t, 0.91, stub.metrics["accuracy"], 1e-9)
	assert.Equal(t, "FINISHED", stub.runStatus)
}

func TestBadCredentialsSurfaceAsAPIError(t *testing.T) {
	_, srv := newMLflowStub(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c, err := NewClient(config.TrackingConfig{
		URI: srv.URL, Username: "alice", Token: "wrong", Timeout: 5 * time.Second,
	}, logger)
	require.NoError(t, err)

	_, err = c.ExperimentID(context.Background(), "existing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNAUTHENTICATED", apiErr.Code)
}

func TestRegisterModelToleratesExisting(t *testing.T) {
	_, srv := newMLflowStub(t)
	c := newTestClient(t, srv.URL)

	mv, err := c.RegisterModel(context.Background(), "tweet-sentiment", "mlflow-artifacts:/7/run-1/artifacts/bundle", "run-1")
	require.NoError(t, err)
	assert.Equal(t, "3", mv.Version)
}

func TestResolveArtifactRoot(t *testing.T) {
	_, srv := newMLflowStub(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"model stage", "models:/tweet-sentiment/Production", "mlflow-artifacts:/7/run-1/artifacts/bundle"},
		{"model version", "models:/tweet-sentiment/3", "mlflow-artifacts:/7/run-1/artifacts/bundle"},
		{"run subpath", "runs:/run-1/bundle", "mlflow-artifacts:/7/run-1/artifacts/bundle"},
		{"passthrough", "s3://bucket/prefix/bundle", "s3://bucket/prefix/bundle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ResolveArtifactRoot(ctx, tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := c.ResolveArtifactRoot(ctx, "models:/missing-selector")
	assert.Error(t, err)
}

func TestBundleUploadDownloadThroughProxy(t *testing.T) {
	stub, srv := newMLflowStub(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	src := t.TempDir()
	for _, name := range bundleArtifacts {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("payload of "+name), 0o644))
	}

	run := Run{ID: "run-1", ExperimentID: "7", ArtifactURI: "mlflow-artifacts:/7/run-1/artifacts"}
	root, err := c.UploadBundle(ctx, run, src)
	require.NoError(t, err)
	assert.Equal(t, "mlflow-artifacts:/7/run-1/artifacts/bundle", root)

	stub.mu.Lock()
	assert.Equal(t, []byte("payload of "+domain.ArtifactModel), stub.artifacts["7/run-1/artifacts/bundle/"+domain.ArtifactModel])
	assert.Len(t, stub.artifacts, len(bundleArtifacts))
	stub.mu.Unlock()

	dest := t.TempDir()
	require.NoError(t, c.DownloadBundle(ctx, "runs:/run-1/bundle", dest))
	for _, name := range bundleArtifacts {
		data, err := os.ReadFile(filepath.Join(dest, name))
		require.NoError(t, err)
		assert.Equal(t, "payload of "+name, string(data))
	}
}

func TestLocalArtifactStore(t *testing.T) {
	c := newTestClient(t, "http://mlflow.invalid")
	ctx := context.Background()

	dir := t.TempDir()
	store, err := c.artifactStore(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, domain.ArtifactMetrics, strings.NewReader(`{"accuracy":0.9}`)))

	rc, err := store.Get(ctx, domain.ArtifactMetrics)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accuracy":0.9}`, string(data))

	_, err = c.artifactStore(ctx, "gs://bucket/x")
	assert.Error(t, err)
}
