package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/nexusml/nexus/internal/config"
)

type stubStorage struct{}

func (stubStorage) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error) {
	return &UploadResult{Path: path}, nil
}
func (stubStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (stubStorage) Exists(ctx context.Context, path string) (bool, error) { return false, nil }
func (stubStorage) GetMetadata(ctx context.Context, path string) (*ObjectInfo, error) {
	return &ObjectInfo{Path: path}, nil
}

func TestNew_DispatchesByProvider(t *testing.T) {
	Register("stub", func(cfg *config.Config) (Storage, error) {
		return stubStorage{}, nil
	})

	cfg := &config.Config{Storage: config.StorageConfig{Provider: "stub"}}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, ok := s.(stubStorage); !ok {
		t.Errorf("New() returned %T, want the registered stub", s)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Provider: "carrier-pigeon"}}
	_, err := New(cfg)
	if err == nil {
		t.Fatal("New() succeeded for an unregistered provider")
	}
	if !strings.Contains(err.Error(), "unsupported storage provider") {
		t.Errorf("New() error = %v", err)
	}
}
