package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/nexusml/nexus/internal/registry"
	"github.com/nexusml/nexus/internal/storage"
)

type mapBackend map[string][]byte

func (m mapBackend) Upload(_ context.Context, path string, r io.Reader, _ int64) (*storage.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m[path] = data
	return &storage.UploadResult{Path: path, Size: int64(len(data))}, nil
}

func (m mapBackend) Download(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m mapBackend) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m[path]
	return ok, nil
}

func (m mapBackend) GetMetadata(_ context.Context, path string) (*storage.ObjectInfo, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return &storage.ObjectInfo{Path: path, Size: int64(len(data))}, nil
}

func seededRegistry(t *testing.T, key string) *registry.File {
	t.Helper()
	regFile := registry.NewFile(filepath.Join(t.TempDir(), registry.DefaultFileName))
	reg := registry.New()
	if err := reg.Register("demo", "abc123def456", key, 32, "json"); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if err := regFile.Save(reg); err != nil {
		t.Fatalf("failed to save registry: %v", err)
	}
	return regFile
}

func TestLoaderResolvesDownloadsAndServes(t *testing.T) {
	key := "demo/abc123def456.json"
	backend := mapBackend{key: []byte(`{"bias": 1}`)}
	regFile := seededRegistry(t, key)

	loader := NewLoader(regFile, backend, t.TempDir(), "", nil)
	model, err := loader.Load(context.Background(), "demo", registry.LatestSelector)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if model.URI != key {
		t.Errorf("expected URI %q, got %q", key, model.URI)
	}

	responses := model.Backend.PredictBatch(context.Background(), []Request{
		{ID: "x", Data: json.RawMessage(`[2, 3]`)},
	})
	var got float64
	if responses[0].Err != nil {
		t.Fatalf("prediction failed: %v", responses[0].Err)
	}
	if err := json.Unmarshal(responses[0].Result, &got); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if got != 6 {
		t.Errorf("got %v, want 6", got)
	}
}

func TestLoaderSelectsRemoteForNonJSON(t *testing.T) {
	key := "demo/abc123def456.pkl"
	backend := mapBackend{key: []byte("pickled bytes")}
	regFile := registry.NewFile(filepath.Join(t.TempDir(), registry.DefaultFileName))
	reg := registry.New()
	if err := reg.Register("demo", "abc123def456", key, 13, "pkl"); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if err := regFile.Save(reg); err != nil {
		t.Fatalf("failed to save registry: %v", err)
	}

	loader := NewLoader(regFile, backend, t.TempDir(), "http://localhost:8000", nil)
	model, err := loader.Load(context.Background(), "demo", registry.LatestSelector)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, ok := model.Backend.(*RemoteBackend); !ok {
		t.Errorf("expected remote backend for .pkl artifact, got %T", model.Backend)
	}
}

func TestLoaderFailsWithoutRuntimeForNonJSON(t *testing.T) {
	key := "demo/abc123def456.pt"
	backend := mapBackend{key: []byte("tensor bytes")}
	regFile := registry.NewFile(filepath.Join(t.TempDir(), registry.DefaultFileName))
	reg := registry.New()
	if err := reg.Register("demo", "abc123def456", key, 12, "pt"); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if err := regFile.Save(reg); err != nil {
		t.Fatalf("failed to save registry: %v", err)
	}

	loader := NewLoader(regFile, backend, t.TempDir(), "", nil)
	if _, err := loader.Load(context.Background(), "demo", registry.LatestSelector); err == nil {
		t.Error("expected error when no runtime is configured")
	}
}

func TestLoaderUnknownModel(t *testing.T) {
	regFile := seededRegistry(t, "demo/abc123def456.json")
	loader := NewLoader(regFile, mapBackend{}, t.TempDir(), "", nil)
	if _, err := loader.Load(context.Background(), "nope", registry.LatestSelector); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestLoaderRequiresRegistry(t *testing.T) {
	regFile := registry.NewFile(filepath.Join(t.TempDir(), registry.DefaultFileName))
	loader := NewLoader(regFile, mapBackend{}, t.TempDir(), "", nil)
	_, err := loader.Load(context.Background(), "demo", registry.LatestSelector)
	if !errors.Is(err, registry.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
