package domain

import (
	"time"

	"github.com/opencontainers/go-digest"
)

// Artifact names inside a bundle directory.
const (
	ArtifactModel      = "model.txt"
	ArtifactVectorizer = "vectorizer.json"
	ArtifactMetrics    = "metrics.json"
	ArtifactManifest   = "manifest.json"
)

// ArtifactDescriptor records one file of a bundle.
type ArtifactDescriptor struct {
	Name   string        `json:"name"`
	Digest digest.Digest `json:"digest"`
	Size   int64         `json:"size"`
}

// BundleManifest ties the artifacts of one training run together. It is
// written last, so a bundle with a manifest is complete.
type BundleManifest struct {
	ModelVersion       string               `json:"model_version"`
	TrainedAt          time.Time            `json:"trained_at"`
	DatasetFingerprint string               `json:"dataset_fingerprint"`
	TrainRows          int                  `json:"train_rows"`
	TestRows           int                  `json:"test_rows"`
	Params             map[string]string    `json:"params"`
	Artifacts          []ArtifactDescriptor `json:"artifacts"`
}

// Artifact returns the descriptor for name, if present.
func (m BundleManifest) Artifact(name string) (ArtifactDescriptor, bool) {
	for _, a := range m.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return ArtifactDescriptor{}, false
}
