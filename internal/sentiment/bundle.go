package sentiment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"sentiment-analysis-service/internal/domain"
)

// WriteBundle writes metrics.json and a digest-carrying manifest.json into a
// directory already holding the model and vectorizer artifacts. The manifest
// goes last so its presence marks the bundle complete.
func WriteBundle(dir string, manifest domain.BundleManifest, report domain.EvaluationReport) error {
	metrics, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, domain.ArtifactMetrics), metrics, 0o644); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	names := []string{domain.ArtifactModel, domain.ArtifactVectorizer, domain.ArtifactMetrics}
	artifacts := make([]domain.ArtifactDescriptor, 0, len(names))
	for _, name := range names {
		desc, err := describeArtifact(dir, name)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, desc)
	}
	manifest.Artifacts = artifacts

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, domain.ArtifactManifest), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadBundle loads the manifest at dir and checks every listed artifact
// against its recorded digest and size.
func ReadBundle(dir string) (domain.BundleManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, domain.ArtifactManifest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.BundleManifest{}, fmt.Errorf("%w: %s", domain.ErrBundleNotFound, dir)
		}
		return domain.BundleManifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var manifest domain.BundleManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return domain.BundleManifest{}, fmt.Errorf("%w: manifest: %v", domain.ErrBundleCorrupt, err)
	}
	for _, want := range manifest.Artifacts {
		got, err := describeArtifact(dir, want.Name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return domain.BundleManifest{}, fmt.Errorf("%w: missing %s", domain.ErrBundleCorrupt, want.Name)
			}
			return domain.BundleManifest{}, err
		}
		if got.Digest != want.Digest || got.Size != want.Size {
			return domain.BundleManifest{}, fmt.Errorf("%w: %s digest mismatch", domain.ErrBundleCorrupt, want.Name)
		}
	}
	return manifest, nil
}

func describeArtifact(dir, name string) (domain.ArtifactDescriptor, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return domain.ArtifactDescriptor{}, err
	}
	defer f.Close()
	dig, err := digest.FromReader(f)
	if err != nil {
		return domain.ArtifactDescriptor{}, fmt.Errorf("digest %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		return domain.ArtifactDescriptor{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return domain.ArtifactDescriptor{Name: name, Digest: dig, Size: info.Size()}, nil
}
