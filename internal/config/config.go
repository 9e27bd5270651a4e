package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Artifacts ArtifactsConfig
	Tracking  TrackingConfig
	PredLog   PredLogConfig
	Deploy    DeployConfig
	Logger    LoggerConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// ArtifactsConfig locates the trained bundle. ModelURI, when set, wins over
// the local directory and is resolved through the tracking server.
type ArtifactsConfig struct {
	Dir      string
	ModelURI string
}

// TrackingConfig carries MLflow connection settings. DagsHub-hosted MLflow
// authenticates with the DagsHub username/token as HTTP basic auth.
type TrackingConfig struct {
	URI        string
	Experiment string
	Username   string
	Token      string
	Timeout    time.Duration
	// S3Endpoint overrides the S3 endpoint for s3:// artifact roots, the
	// same way the MLflow clients honor MLFLOW_S3_ENDPOINT_URL.
	S3Endpoint string
}

func (c TrackingConfig) Enabled() bool {
	return c.URI != ""
}

// PredLogConfig enables the prediction request log when a DSN is set.
type PredLogConfig struct {
	DSN      string
	MaxConns int
}

func (c PredLogConfig) Enabled() bool {
	return c.DSN != ""
}

type DeployConfig struct {
	Enabled        bool
	InCluster      bool
	KubeConfigPath string
	Namespace      string
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8000)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("ARTIFACTS_DIR", "artifacts")
	v.SetDefault("MLFLOW_MODEL_URI", "")
	v.SetDefault("MLFLOW_TRACKING_URI", "")
	v.SetDefault("MLFLOW_EXPERIMENT", "sentiment-analysis")
	v.SetDefault("MLFLOW_TIMEOUT", "30s")
	v.SetDefault("MLFLOW_S3_ENDPOINT_URL", "")
	v.SetDefault("DAGSHUB_USERNAME", "")
	v.SetDefault("DAGSHUB_TOKEN", "")
	v.SetDefault("PREDLOG_DSN", "")
	v.SetDefault("PREDLOG_MAX_CONNS", 4)
	v.SetDefault("KSERVE_ENABLED", false)
	v.SetDefault("KSERVE_IN_CLUSTER", false)
	v.SetDefault("KSERVE_KUBECONFIG", "")
	v.SetDefault("KSERVE_NAMESPACE", "model-serving")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	shutdownTimeout, err := time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		shutdownTimeout = 10 * time.Second
	}
	trackingTimeout, err := time.ParseDuration(v.GetString("MLFLOW_TIMEOUT"))
	if err != nil {
		trackingTimeout = 30 * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("HOST"),
			Port:            v.GetInt("PORT"),
			ShutdownTimeout: shutdownTimeout,
		},
		Artifacts: ArtifactsConfig{
			Dir:      v.GetString("ARTIFACTS_DIR"),
			ModelURI: v.GetString("MLFLOW_MODEL_URI"),
		},
		Tracking: TrackingConfig{
			URI:        v.GetString("MLFLOW_TRACKING_URI"),
			Experiment: v.GetString("MLFLOW_EXPERIMENT"),
			Username:   v.GetString("DAGSHUB_USERNAME"),
			Token:      v.GetString("DAGSHUB_TOKEN"),
			Timeout:    trackingTimeout,
			S3Endpoint: v.GetString("MLFLOW_S3_ENDPOINT_URL"),
		},
		PredLog: PredLogConfig{
			DSN:      v.GetString("PREDLOG_DSN"),
			MaxConns: v.GetInt("PREDLOG_MAX_CONNS"),
		},
		Deploy: DeployConfig{
			Enabled:        v.GetBool("KSERVE_ENABLED"),
			InCluster:      v.GetBool("KSERVE_IN_CLUSTER"),
			KubeConfigPath: v.GetString("KSERVE_KUBECONFIG"),
			Namespace:      v.GetString("KSERVE_NAMESPACE"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}
