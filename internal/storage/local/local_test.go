package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nexusml/nexus/internal/config"
)

// newTestStorage creates a LocalStorage backed by a temporary directory.
func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	cfg := &config.LocalStorageConfig{BasePath: t.TempDir()}
	s, err := New(cfg)
	if err != nil {
		t.Fatal("New:", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesBaseDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "a", "b", "artifacts")
	_, err := New(&config.LocalStorageConfig{BasePath: base})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(base); os.IsNotExist(err) {
		t.Error("New() did not create base directory")
	}
}

// ---------------------------------------------------------------------------
// Upload
// ---------------------------------------------------------------------------

func TestUpload(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "model bytes"
	result, err := s.Upload(ctx, "fraud-detector/abc123.pkl", strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if result.Path != "fraud-detector/abc123.pkl" {
		t.Errorf("Path = %q, want fraud-detector/abc123.pkl", result.Path)
	}
	if result.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", result.Size, len(content))
	}
	if len(result.Checksum) != 64 {
		t.Errorf("Checksum len = %d, want 64 (SHA256 hex)", len(result.Checksum))
	}
}

func TestUpload_CreatesSubdirectories(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Upload(context.Background(), "deep/nested/model.bin", strings.NewReader("data"), 4)
	if err != nil {
		t.Fatalf("Upload() error for nested path: %v", err)
	}

	fullPath := filepath.Join(s.basePath, "deep", "nested", "model.bin")
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		t.Error("Upload() did not create file at nested path")
	}
}

// ---------------------------------------------------------------------------
// Download
// ---------------------------------------------------------------------------

func TestDownload_RoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "model bytes"
	if _, err := s.Upload(ctx, "m/h.pkl", strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatal(err)
	}

	reader, err := s.Download(ctx, "m/h.pkl")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("Download() = %q, want %q", data, content)
	}
}

func TestDownload_Missing(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Download(context.Background(), "no/such.pkl")
	if err == nil {
		t.Fatal("Download() of missing artifact succeeded")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Download() error = %v, want a not-found message", err)
	}
}

// ---------------------------------------------------------------------------
// Exists / GetMetadata
// ---------------------------------------------------------------------------

func TestExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "m/h.pkl")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("Exists() = true before upload")
	}

	if _, err := s.Upload(ctx, "m/h.pkl", strings.NewReader("x"), 1); err != nil {
		t.Fatal(err)
	}

	exists, err = s.Exists(ctx, "m/h.pkl")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("Exists() = false after upload")
	}
}

func TestGetMetadata(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	content := "some artifact content"
	uploaded, err := s.Upload(ctx, "m/h.pkl", strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatal(err)
	}

	info, err := s.GetMetadata(ctx, "m/h.pkl")
	if err != nil {
		t.Fatalf("GetMetadata() error: %v", err)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", info.Size, len(content))
	}
	if info.Checksum != uploaded.Checksum {
		t.Errorf("Checksum = %q, want upload checksum %q", info.Checksum, uploaded.Checksum)
	}
	if info.LastModified.IsZero() {
		t.Error("LastModified is zero")
	}
}
