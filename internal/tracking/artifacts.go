package tracking

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"sentiment-analysis-service/internal/domain"
)

// bundleArtifacts is every file a bundle ships with; stores move exactly
// these, so no remote listing API is needed.
var bundleArtifacts = []string{
	domain.ArtifactModel,
	domain.ArtifactVectorizer,
	domain.ArtifactMetrics,
	domain.ArtifactManifest,
}

// ArtifactStore moves bundle files to and from one artifact root.
type ArtifactStore interface {
	Put(ctx context.Context, name string, src io.Reader) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

// BundleRoot is the artifact location a run's bundle uploads to, and the
// source a model version registered from that run points at.
func BundleRoot(run Run) string {
	return run.ArtifactURI + "/bundle"
}

// UploadBundle copies the bundle in dir to the run's artifact location and
// returns the artifact root to register the model version against.
func (c *Client) UploadBundle(ctx context.Context, run Run, dir string) (string, error) {
	root := BundleRoot(run)
	store, err := c.artifactStore(ctx, root)
	if err != nil {
		return "", err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range bundleArtifacts {
		g.Go(func() error {
			f, err := os.Open(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("open %s: %w", name, err)
			}
			defer f.Close()
			if err := store.Put(ctx, name, f); err != nil {
				return fmt.Errorf("upload %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	c.logger.WithFields(logrus.Fields{"run_id": run.ID, "root": root}).Info("bundle artifacts uploaded")
	return root, nil
}

// DownloadBundle fetches the bundle behind modelURI into destDir. The caller
// verifies the result against its manifest before use.
func (c *Client) DownloadBundle(ctx context.Context, modelURI, destDir string) error {
	root, err := c.ResolveArtifactRoot(ctx, modelURI)
	if err != nil {
		return err
	}
	store, err := c.artifactStore(ctx, root)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range bundleArtifacts {
		g.Go(func() error {
			src, err := store.Get(ctx, name)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", name, err)
			}
			defer src.Close()
			dst, err := os.Create(filepath.Join(destDir, name))
			if err != nil {
				return err
			}
			defer dst.Close()
			if _, err := io.Copy(dst, src); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"model_uri": modelURI, "dir": destDir}).Info("bundle downloaded")
	return nil
}

// ResolveArtifactRoot turns models:/ and runs:/ URIs into the storage URI of
// the bundle; other URIs pass through unchanged.
func (c *Client) ResolveArtifactRoot(ctx context.Context, uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "models:/"):
		name, selector, ok := strings.Cut(strings.TrimPrefix(uri, "models:/"), "/")
		if !ok || name == "" || selector == "" {
			return "", fmt.Errorf("malformed model URI %q", uri)
		}
		version := selector
		if _, err := strconv.Atoi(selector); err != nil {
			mv, err := c.LatestVersion(ctx, name, selector)
			if err != nil {
				return "", err
			}
			version = mv.Version
		}
		return c.DownloadURI(ctx, name, version)
	case strings.HasPrefix(uri, "runs:/"):
		runID, sub, _ := strings.Cut(strings.TrimPrefix(uri, "runs:/"), "/")
		if runID == "" {
			return "", fmt.Errorf("malformed run URI %q", uri)
		}
		run, err := c.GetRun(ctx, runID)
		if err != nil {
			return "", err
		}
		if sub == "" {
			return run.ArtifactURI, nil
		}
		return run.ArtifactURI + "/" + sub, nil
	default:
		return uri, nil
	}
}

// artifactStore picks the store implementation for an artifact root.
func (c *Client) artifactStore(ctx context.Context, root string) (ArtifactStore, error) {
	u, err := url.Parse(root)
	if err != nil {
		return nil, fmt.Errorf("parse artifact root %q: %w", root, err)
	}
	switch u.Scheme {
	case "mlflow-artifacts":
		return &proxyStore{client: c, root: strings.TrimPrefix(u.Path, "/")}, nil
	case "s3":
		return c.newS3Store(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "file", "":
		dir := u.Path
		if u.Scheme == "" {
			dir = root
		}
		return &localStore{dir: dir}, nil
	default:
		return nil, fmt.Errorf("unsupported artifact root scheme %q", u.Scheme)
	}
}

// proxyStore moves artifacts through the tracking server's mlflow-artifacts
// proxy, the layout DagsHub serves.
type proxyStore struct {
	client *Client
	root   string
}

func (s *proxyStore) Put(ctx context.Context, name string, src io.Reader) error {
	resp, err := s.client.stream(ctx, http.MethodPut, s.path(name), nil, src)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (s *proxyStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.stream(ctx, http.MethodGet, s.path(name), nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *proxyStore) path(name string) string {
	return "/api/2.0/mlflow-artifacts/artifacts/" + path.Join(s.root, name)
}

// s3Store reads and writes artifacts in a bucket. With a custom endpoint
// configured (MLFLOW_S3_ENDPOINT_URL) it signs with the DagsHub token and
// uses path-style addressing; against plain AWS it relies on the default
// credential chain.
type s3Store struct {
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

func (c *Client) newS3Store(ctx context.Context, bucket, prefix string) (*s3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if c.s3Endpoint != "" {
		opts = append(opts,
			awsconfig.WithRegion("us-east-1"),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(c.username, c.token, ""),
			),
			awsconfig.WithEndpointResolverWithOptions(
				aws.EndpointResolverWithOptionsFunc(
					func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
						return aws.Endpoint{URL: c.s3Endpoint}, nil
					},
				),
			),
		)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = c.s3Endpoint != ""
	})
	return &s3Store{
		bucket:   bucket,
		prefix:   prefix,
		client:   cli,
		uploader: manager.NewUploader(cli),
	}, nil
}

func (s *s3Store) Put(ctx context.Context, name string, src io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join(s.prefix, name)),
		Body:   src,
	})
	return err
}

func (s *s3Store) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path.Join(s.prefix, name)),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// localStore serves file:// roots and plain directories.
type localStore struct {
	dir string
}

func (s *localStore) Put(ctx context.Context, name string, src io.Reader) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

func (s *localStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, name))
}
