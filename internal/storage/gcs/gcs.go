// Package gcs implements the Google Cloud Storage backend for model artifacts.
// Authentication supports Application Default Credentials (recommended for
// GCP-native deployments) and service account keys supplied as a file path or
// inline JSON.
package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	appconfig "github.com/nexusml/nexus/internal/config"
	"github.com/nexusml/nexus/internal/storage"
	"github.com/nexusml/nexus/pkg/checksum"
)

func init() {
	storage.Register("gcs", func(cfg *appconfig.Config) (storage.Storage, error) {
		return New(&cfg.Storage.GCS)
	})
}

// GCSStorage implements the Storage interface for Google Cloud Storage.
type GCSStorage struct {
	client *gstorage.Client
	bucket string
}

// New creates a Google Cloud Storage backend.
func New(cfg *appconfig.GCSStorageConfig) (*GCSStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}

	ctx := context.Background()
	var opts []option.ClientOption

	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		// Application Default Credentials: GOOGLE_APPLICATION_CREDENTIALS,
		// GCE/GKE metadata service, or gcloud auth application-default login.
	}

	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Close closes the GCS client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// Upload stores an artifact in GCS, recording its SHA-256 in object metadata.
func (s *GCSStorage) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	sum, err := checksum.SHA256(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	obj := s.client.Bucket(s.bucket).Object(path)
	writer := obj.NewWriter(ctx)
	writer.Metadata = map[string]string{
		"sha256": sum,
	}

	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return &storage.UploadResult{
		Path:     path,
		Size:     int64(len(data)),
		Checksum: sum,
	}, nil
}

// Download retrieves an artifact from GCS.
func (s *GCSStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read from GCS bucket %s: %w", s.bucket, err)
	}

	return reader, nil
}

// Exists checks whether an object exists at the given path.
func (s *GCSStorage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx)
	if err != nil {
		if err == gstorage.ErrObjectNotExist {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// GetMetadata retrieves object metadata without downloading the content.
func (s *GCSStorage) GetMetadata(ctx context.Context, path string) (*storage.ObjectInfo, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(path).Attrs(ctx)
	if err != nil {
		if err == gstorage.ErrObjectNotExist {
			return nil, fmt.Errorf("artifact not found: %s", path)
		}
		return nil, fmt.Errorf("failed to get object attributes: %w", err)
	}

	var sum string
	if attrs.Metadata != nil {
		sum = attrs.Metadata["sha256"]
	}

	return &storage.ObjectInfo{
		Path:         path,
		Size:         attrs.Size,
		Checksum:     sum,
		LastModified: attrs.Updated,
	}, nil
}
