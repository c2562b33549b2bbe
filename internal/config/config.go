// Package config loads and validates the NexusML configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the NEXUS_ prefix (e.g.,
// NEXUS_STORAGE_PROVIDER overrides storage.provider in the YAML). The same
// binary therefore runs with a nexus.yaml in a developer checkout and with pure
// environment variables in a container.
//
// Both binaries share this package: the control-plane CLI reads the registry
// and storage sections, the inference gateway additionally reads the server,
// model, and batch sections.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nexusml/nexus/internal/registry"
)

// Config holds all application configuration.
type Config struct {
	Registry  RegistryConfig  `mapstructure:"registry"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Model     ModelConfig     `mapstructure:"model"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// RegistryConfig locates the registry metadata file.
type RegistryConfig struct {
	// Path to the metadata JSON file. Relative paths are resolved against the
	// working directory, which for control-plane commands is expected to be
	// the project root (the same place the file gets committed from).
	Path string `mapstructure:"path"`
}

// StorageConfig selects and configures the object-storage backend.
type StorageConfig struct {
	// Provider is the storage backend enum: "s3", "gcs", "azure", or "local".
	Provider string             `mapstructure:"provider"`
	S3       S3StorageConfig    `mapstructure:"s3"`
	GCS      GCSStorageConfig   `mapstructure:"gcs"`
	Azure    AzureStorageConfig `mapstructure:"azure"`
	Local    LocalStorageConfig `mapstructure:"local"`
}

// S3StorageConfig holds S3-compatible storage configuration.
type S3StorageConfig struct {
	// Endpoint is an optional S3-compatible endpoint URL (MinIO, DigitalOcean
	// Spaces, etc.). Empty means AWS S3.
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`

	// Static credentials. When empty the AWS default credential chain is used
	// (env vars, shared config, IAM role, IMDS).
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// GCSStorageConfig holds Google Cloud Storage configuration.
type GCSStorageConfig struct {
	Bucket string `mapstructure:"bucket"`

	// CredentialsFile is the path to a service account JSON key file. Empty
	// means Application Default Credentials.
	CredentialsFile string `mapstructure:"credentials_file"`

	// CredentialsJSON is the service account key as an inline string, an
	// alternative to credentials_file for environment-variable injection.
	CredentialsJSON string `mapstructure:"credentials_json"`

	// Endpoint is an optional custom endpoint for GCS emulators.
	Endpoint string `mapstructure:"endpoint"`
}

// AzureStorageConfig holds Azure Blob Storage configuration.
type AzureStorageConfig struct {
	AccountName   string `mapstructure:"account_name"`
	AccountKey    string `mapstructure:"account_key"`
	ContainerName string `mapstructure:"container_name"`
}

// LocalStorageConfig holds local filesystem storage configuration, intended
// for development and tests.
type LocalStorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// ServerConfig holds the inference gateway's HTTP listener configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GetAddress returns the host:port the gateway listens on.
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ModelConfig selects which artifact the inference gateway serves.
type ModelConfig struct {
	// Name of the model to serve. Empty means the gateway starts degraded
	// with no model loaded.
	Name string `mapstructure:"name"`

	// Version is the selector: an explicit commit hash or "latest".
	Version string `mapstructure:"version"`

	// RuntimeURL is the base URL of the remote model-execution runtime used
	// for artifacts the gateway cannot execute natively.
	RuntimeURL string `mapstructure:"runtime_url"`

	// ScratchDir is where downloaded artifacts are staged before loading.
	ScratchDir string `mapstructure:"scratch_dir"`
}

// BatchConfig controls the gateway's request batcher.
type BatchConfig struct {
	// MaxSize is the largest number of requests coalesced into one backend call.
	MaxSize int `mapstructure:"max_size"`

	// Linger is how long the collector waits for more requests after the
	// first one arrives before dispatching a partial batch.
	Linger time.Duration `mapstructure:"linger"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds the metrics side-channel configuration.
type TelemetryConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// Load reads configuration from the given file path (or the default search
// locations when empty), layered under NEXUS_-prefixed environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("nexus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/nexusml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment variables apply.
	}

	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not surface unset nested keys through Unmarshal, so
	// bind every key we document explicitly.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in sensitive fields so secrets can stay in the
	// environment while the YAML remains committable.
	cfg.Storage.S3.AccessKeyID = os.ExpandEnv(cfg.Storage.S3.AccessKeyID)
	cfg.Storage.S3.SecretAccessKey = os.ExpandEnv(cfg.Storage.S3.SecretAccessKey)
	cfg.Storage.Azure.AccountKey = os.ExpandEnv(cfg.Storage.Azure.AccountKey)
	cfg.Storage.GCS.CredentialsJSON = os.ExpandEnv(cfg.Storage.GCS.CredentialsJSON)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Registry defaults
	v.SetDefault("registry.path", registry.DefaultFileName)

	// Storage defaults
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local.base_path", "./artifacts")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")

	// Model defaults
	v.SetDefault("model.name", "")
	v.SetDefault("model.version", registry.LatestSelector)
	v.SetDefault("model.runtime_url", "http://localhost:8000")
	v.SetDefault("model.scratch_dir", os.TempDir())

	// Batch defaults
	v.SetDefault("batch.max_size", 32)
	v.SetDefault("batch.linger", "50ms")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Telemetry defaults
	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.prometheus_port", 9090)
}

func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"registry.path",
		"storage.provider",
		"storage.s3.endpoint",
		"storage.s3.region",
		"storage.s3.bucket",
		"storage.s3.access_key_id",
		"storage.s3.secret_access_key",
		"storage.gcs.bucket",
		"storage.gcs.credentials_file",
		"storage.gcs.credentials_json",
		"storage.gcs.endpoint",
		"storage.azure.account_name",
		"storage.azure.account_key",
		"storage.azure.container_name",
		"storage.local.base_path",
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"model.name",
		"model.version",
		"model.runtime_url",
		"model.scratch_dir",
		"batch.max_size",
		"batch.linger",
		"logging.level",
		"logging.format",
		"telemetry.metrics_enabled",
		"telemetry.prometheus_port",
	}
	for _, key := range keys {
		// BindEnv only errors on empty input, which key never is.
		_ = v.BindEnv(key)
	}
}

// Validate checks the configuration for values that would fail later in
// confusing ways.
func (c *Config) Validate() error {
	if c.Registry.Path == "" {
		return fmt.Errorf("registry.path must not be empty")
	}

	switch c.Storage.Provider {
	case "local":
		if c.Storage.Local.BasePath == "" {
			return fmt.Errorf("storage.local.base_path is required for the local provider")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 provider")
		}
	case "gcs":
		if c.Storage.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket is required for the gcs provider")
		}
	case "azure":
		if c.Storage.Azure.AccountName == "" || c.Storage.Azure.ContainerName == "" {
			return fmt.Errorf("storage.azure.account_name and container_name are required for the azure provider")
		}
	default:
		return fmt.Errorf("unsupported storage provider: %s (must be 'local', 's3', 'gcs', or 'azure')", c.Storage.Provider)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Batch.MaxSize < 1 {
		return fmt.Errorf("batch.max_size must be at least 1, got %d", c.Batch.MaxSize)
	}
	if c.Batch.Linger <= 0 {
		return fmt.Errorf("batch.linger must be positive, got %s", c.Batch.Linger)
	}

	return nil
}
