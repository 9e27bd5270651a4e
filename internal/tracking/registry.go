package tracking

import (
	"context"
	"net/http"
	"net/url"
)

// ModelVersion is one registered version of a model.
type ModelVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  string `json:"source"`
	RunID   string `json:"run_id"`
	Stage   string `json:"current_stage"`
	Status  string `json:"status"`
}

// RegisterModel creates the registered model if needed and attaches a new
// version pointing at source (the run's bundle artifact root).
func (c *Client) RegisterModel(ctx context.Context, name, source, runID string) (ModelVersion, error) {
	body := map[string]string{"name": name}
	err := c.request(ctx, http.MethodPost, "/api/2.0/mlflow/registered-models/create", nil, body, nil)
	if err != nil && !IsAlreadyExists(err) {
		return ModelVersion{}, err
	}

	var got struct {
		ModelVersion ModelVersion `json:"model_version"`
	}
	create := map[string]string{"name": name, "source": source, "run_id": runID}
	if err := c.request(ctx, http.MethodPost, "/api/2.0/mlflow/model-versions/create", nil, create, &got); err != nil {
		return ModelVersion{}, err
	}
	return got.ModelVersion, nil
}

// TransitionStage moves a model version to stage ("Staging", "Production",
// "Archived"), optionally archiving whatever held the stage before.
func (c *Client) TransitionStage(ctx context.Context, name, version, stage string, archiveExisting bool) (ModelVersion, error) {
	body := struct {
		Name            string `json:"name"`
		Version         string `json:"version"`
		Stage           string `json:"stage"`
		ArchiveExisting bool   `json:"archive_existing_versions"`
	}{Name: name, Version: version, Stage: stage, ArchiveExisting: archiveExisting}

	var got struct {
		ModelVersion ModelVersion `json:"model_version"`
	}
	if err := c.request(ctx, http.MethodPost, "/api/2.0/mlflow/model-versions/transition-stage", nil, body, &got); err != nil {
		return ModelVersion{}, err
	}
	return got.ModelVersion, nil
}

// LatestVersion returns the newest version of the model in the given stage.
func (c *Client) LatestVersion(ctx context.Context, name, stage string) (ModelVersion, error) {
	body := struct {
		Name   string   `json:"name"`
		Stages []string `json:"stages,omitempty"`
	}{Name: name}
	if stage != "" {
		body.Stages = []string{stage}
	}

	var got struct {
		ModelVersions []ModelVersion `json:"model_versions"`
	}
	if err := c.request(ctx, http.MethodPost, "/api/2.0/mlflow/registered-models/get-latest-versions", nil, body, &got); err != nil {
		return ModelVersion{}, err
	}
	if len(got.ModelVersions) == 0 {
		return ModelVersion{}, &APIError{Code: "RESOURCE_DOES_NOT_EXIST", Message: "no versions in stage " + stage}
	}
	return got.ModelVersions[0], nil
}

// DownloadURI resolves the artifact root of a model version.
func (c *Client) DownloadURI(ctx context.Context, name, version string) (string, error) {
	var got struct {
		ArtifactURI string `json:"artifact_uri"`
	}
	query := url.Values{"name": {name}, "version": {version}}
	if err := c.request(ctx, http.MethodGet, "/api/2.0/mlflow/model-versions/get-download-uri", query, nil, &got); err != nil {
		return "", err
	}
	return got.ArtifactURI, nil
}
