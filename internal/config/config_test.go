package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a nexus.yaml into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Registry.Path != ".nexus_meta.json" {
		t.Errorf("registry.path = %q, want .nexus_meta.json", cfg.Registry.Path)
	}
	if cfg.Storage.Provider != "local" {
		t.Errorf("storage.provider = %q, want local", cfg.Storage.Provider)
	}
	if cfg.Batch.MaxSize != 32 {
		t.Errorf("batch.max_size = %d, want 32", cfg.Batch.MaxSize)
	}
	if cfg.Batch.Linger != 50*time.Millisecond {
		t.Errorf("batch.linger = %s, want 50ms", cfg.Batch.Linger)
	}
	if cfg.Model.Version != "latest" {
		t.Errorf("model.version = %q, want latest", cfg.Model.Version)
	}
	if !cfg.Telemetry.MetricsEnabled || cfg.Telemetry.PrometheusPort != 9090 {
		t.Errorf("telemetry defaults = %+v", cfg.Telemetry)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
storage:
  provider: s3
  s3:
    region: eu-west-1
    bucket: nexus-models
batch:
  max_size: 8
  linger: 10ms
`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Storage.Provider != "s3" {
		t.Errorf("storage.provider = %q, want s3", cfg.Storage.Provider)
	}
	if cfg.Storage.S3.Bucket != "nexus-models" || cfg.Storage.S3.Region != "eu-west-1" {
		t.Errorf("s3 config = %+v", cfg.Storage.S3)
	}
	if cfg.Batch.MaxSize != 8 || cfg.Batch.Linger != 10*time.Millisecond {
		t.Errorf("batch config = %+v", cfg.Batch)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("NEXUS_SERVER_PORT", "9999")
	t.Setenv("NEXUS_MODEL_NAME", "fraud-detector")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8081\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want env override 9999", cfg.Server.Port)
	}
	if cfg.Model.Name != "fraud-detector" {
		t.Errorf("model.name = %q, want fraud-detector", cfg.Model.Name)
	}
}

func TestLoad_ExpandsSecretEnvReferences(t *testing.T) {
	t.Setenv("NEXUS_TEST_SECRET", "s3cr3t")

	cfg, err := Load(writeConfig(t, `
storage:
  provider: s3
  s3:
    region: us-east-1
    bucket: b
    secret_access_key: ${NEXUS_TEST_SECRET}
`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.S3.SecretAccessKey != "s3cr3t" {
		t.Errorf("secret_access_key = %q, want expanded env value", cfg.Storage.S3.SecretAccessKey)
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Registry: RegistryConfig{Path: ".nexus_meta.json"},
			Storage: StorageConfig{
				Provider: "local",
				Local:    LocalStorageConfig{BasePath: "./artifacts"},
			},
			Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
			Batch:  BatchConfig{MaxSize: 32, Linger: 50 * time.Millisecond},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty registry path", func(c *Config) { c.Registry.Path = "" }, "registry.path"},
		{"unknown provider", func(c *Config) { c.Storage.Provider = "ftp" }, "unsupported storage provider"},
		{"s3 without bucket", func(c *Config) { c.Storage.Provider = "s3" }, "storage.s3.bucket"},
		{"gcs without bucket", func(c *Config) { c.Storage.Provider = "gcs" }, "storage.gcs.bucket"},
		{"azure without account", func(c *Config) { c.Storage.Provider = "azure" }, "storage.azure"},
		{"port out of range", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"zero batch size", func(c *Config) { c.Batch.MaxSize = 0 }, "batch.max_size"},
		{"zero linger", func(c *Config) { c.Batch.Linger = 0 }, "batch.linger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.GetAddress(); got != "127.0.0.1:8080" {
		t.Errorf("GetAddress() = %q", got)
	}
}
