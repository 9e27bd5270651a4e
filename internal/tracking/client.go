// Package tracking talks to an MLflow tracking server over its REST API:
// experiment and run bookkeeping, the model registry, and artifact transfer.
// DagsHub-hosted MLflow is the primary target; it authenticates every call
// with the DagsHub username and token as HTTP basic auth.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sentiment-analysis-service/internal/config"
)

// APIError is the error document MLflow returns on non-2xx responses.
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mlflow: %s: %s", e.Code, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "RESOURCE_DOES_NOT_EXIST"
}

func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "RESOURCE_ALREADY_EXISTS"
}

// Client is a thin MLflow REST client. All methods take a context and return
// decoded responses or an *APIError.
type Client struct {
	base       string
	httpClient *http.Client
	username   string
	token      string
	s3Endpoint string
	logger     *logrus.Logger
}

func NewClient(cfg config.TrackingConfig, logger *logrus.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("tracking URI not configured")
	}
	u, err := url.Parse(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("parse tracking URI: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported tracking URI scheme %q", u.Scheme)
	}
	return &Client{
		base:       strings.TrimRight(cfg.URI, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		username:   cfg.Username,
		token:      cfg.Token,
		s3Endpoint: cfg.S3Endpoint,
		logger:     logger,
	}, nil
}

// Run identifies a tracking run and where its artifacts live.
type Run struct {
	ID           string
	ExperimentID string
	ArtifactURI  string
}

type runInfo struct {
	RunID        string `json:"run_id"`
	ExperimentID string `json:"experiment_id"`
	ArtifactURI  string `json:"artifact_uri"`
	Status       string `json:"status"`
}

// ExperimentID looks up an experiment by name, creating it when absent.
func (c *Client) ExperimentID(ctx context.Context, name string) (string, error) {
	var got struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	query := url.Values{"experiment_name": {name}}
	err := c.request(ctx, http.MethodGet, "/api/2.0/mlflow/experiments/get-by-name", query, nil, &got)
	if err == nil {
		return got.Experiment.ExperimentID, nil
	}
	if !IsNotFound(err) {
		return "", err
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	body := map[string]string{"name": name}
	if err := c.request(ctx, http.MethodPost, "/api/2.0/mlflow/experiments/create", nil, body, &created); err != nil {
		return "", err
	}
	c.logger.WithField("experiment", name).Info("created tracking experiment")
	return created.ExperimentID, nil
}

// CreateRun starts a run in the experiment.
func (c *Client) CreateRun(ctx context.Context, experimentID, name string, tags map[string]string) (Run, error) {
	type kv struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	body := struct {
		ExperimentID string `json:"experiment_id"`
		RunName      string `json:"run_name"`
		StartTime    int64  `json:"start_time"`
		Tags         []kv   `json:"tags,omitempty"`
	}{ExperimentID: experimentID, RunName: name, StartTime: time.Now().UnixMilli()}
	for k, v := range tags {
		body.Tags = append(body.Tags, kv{Key: k, Value: v})
	}

	var got struct {
		Run struct {
			Info runInfo `json:"info"`
		} `json:"run"`
	}
	if err := c.request(ctx, http.MethodPost, "/api/2.0/mlflow/runs/create", nil, body, &got); err != nil {
		return Run{}, err
	}
	return Run{
		ID:           got.Run.Info.RunID,
		ExperimentID: got.Run.Info.ExperimentID,
		ArtifactURI:  got.Run.Info.ArtifactURI,
	}, nil
}

// GetRun fetches run metadata, used to resolve runs:/ artifact URIs.
func (c *Client) GetRun(ctx context.Context, runID string) (Run, error) {
	var got struct {
		Run struct {
			Info runInfo `json:"info"`
		} `json:"run"`
	}
	query := url.Values{"run_id": {runID}}
	if err := c.request(ctx, http.MethodGet, "/api/2.0/mlflow/runs/get", query, nil, &got); err != nil {
		return Run{}, err
	}
	return Run{
		ID:           got.Run.Info.RunID,
		ExperimentID: got.Run.Info.ExperimentID,
		ArtifactURI:  got.Run.Info.ArtifactURI,
	}, nil
}

// LogParams records immutable run parameters in one batch.
func (c *Client) LogParams(ctx context.Context, runID string, params map[string]string) error {
	type param struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	body := struct {
		RunID  string  `json:"run_id"`
		Params []param `json:"params"`
	}{RunID: runID}
	for k, v := range params {
		body.Params = append(body.Params, param{Key: k, Value: v})
	}
	return c.request(ctx, http.MethodPost, "/api/2.0/mlflow/runs/log-batch", nil, body, nil)
}

// LogMetrics records metric values in one batch at the given step.
func (c *Client) LogMetrics(ctx context.Context, runID string, metrics map[string]float64, step int64) error {
	type metric struct {
		Key       string  `json:"key"`
		Value     float64 `json:"value"`
		Timestamp int64   `json:"timestamp"`
		Step      int64   `json:"step"`
	}
	now := time.Now().UnixMilli()
	body := struct {
		RunID   string   `json:"run_id"`
		Metrics []metric `json:"metrics"`
	}{RunID: runID}
	for k, v := range metrics {
		body.Metrics = append(body.Metrics, metric{Key: k, Value: v, Timestamp: now, Step: step})
	}
	return c.request(ctx, http.MethodPost, "/api/2.0/mlflow/runs/log-batch", nil, body, nil)
}

// SetTag sets one run tag.
func (c *Client) SetTag(ctx context.Context, runID, key, value string) error {
	body := map[string]string{"run_id": runID, "key": key, "value": value}
	return c.request(ctx, http.MethodPost, "/api/2.0/mlflow/runs/set-tag", nil, body, nil)
}

// EndRun marks the run FINISHED or FAILED.
func (c *Client) EndRun(ctx context.Context, runID string, ok bool) error {
	status := "FINISHED"
	if !ok {
		status = "FAILED"
	}
	body := struct {
		RunID   string `json:"run_id"`
		Status  string `json:"status"`
		EndTime int64  `json:"end_time"`
	}{RunID: runID, Status: status, EndTime: time.Now().UnixMilli()}
	return c.request(ctx, http.MethodPost, "/api/2.0/mlflow/runs/update", nil, body, nil)
}

// request performs one API call and closes the response. Bodies are
// JSON-encoded unless already an io.Reader; responses with status >= 400 are
// decoded into *APIError.
func (c *Client) request(ctx context.Context, method, apiPath string, query url.Values, body, into any) error {
	resp, err := c.stream(ctx, method, apiPath, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			return fmt.Errorf("mlflow: decode response: %w", err)
		}
	}
	return nil
}

// stream performs one API call and hands the open response to the caller.
// Used for artifact transfer, where the body is the payload.
func (c *Client) stream(ctx context.Context, method, apiPath string, query url.Values, body any) (*http.Response, error) {
	target := c.base + apiPath
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	contentType := ""
	switch val := body.(type) {
	case io.Reader:
		reqBody = val
		contentType = "application/octet-stream"
	case nil:
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := &APIError{}
		if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
			if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
				return nil, fmt.Errorf("mlflow: status %d: %w", resp.StatusCode, err)
			}
		} else {
			raw, _ := io.ReadAll(resp.Body)
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = string(raw)
		}
		return nil, apiErr
	}
	return resp, nil
}
