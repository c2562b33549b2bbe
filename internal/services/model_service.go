// Package services implements the higher-level model lifecycle logic that
// coordinates across the registry file, the storage backend, and the source
// control gate. Storing a model, for example, checks the work tree, uploads
// the artifact, and records the version in the metadata file, a multi-step
// operation that spans several domain boundaries.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexusml/nexus/internal/registry"
	"github.com/nexusml/nexus/internal/storage"
)

var (
	// ErrNotAFile means the artifact path does not point at a regular file.
	ErrNotAFile = errors.New("model path is not a regular file")

	// ErrNoLatest means a model has no latest pointer in the registry.
	ErrNoLatest = errors.New("no latest version recorded")

	// ErrArtifactNotFound means the requested commit hash is not registered.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// SourceGate is the slice of the source-control gate the lifecycle needs.
type SourceGate interface {
	Head() (string, error)
	EnsureClean() error
}

// ModelService orchestrates the model store/load/list/rollback lifecycle.
type ModelService struct {
	regFile *registry.File
	backend storage.Storage
	gate    SourceGate
	logger  *slog.Logger
}

// NewModelService creates a lifecycle service over the given registry file,
// storage backend, and source gate. The gate may be nil for read-only use
// (load, list); mutating operations that need it will fail.
func NewModelService(regFile *registry.File, backend storage.Storage, gate SourceGate, logger *slog.Logger) *ModelService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelService{
		regFile: regFile,
		backend: backend,
		gate:    gate,
		logger:  logger,
	}
}

// StoreResult describes a stored model version.
type StoreResult struct {
	Model      string
	CommitHash string
	StorageURI string
	Size       int64
	Checksum   string
}

// Store uploads the model file and records it in the registry under the
// current commit hash. The work tree must be clean so the recorded hash
// actually describes the code that produced the artifact. The metadata file
// is only written after the upload succeeds.
func (s *ModelService) Store(ctx context.Context, modelName, modelPath string) (*StoreResult, error) {
	info, err := os.Stat(modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("model file does not exist: %s", modelPath)
		}
		return nil, fmt.Errorf("failed to stat model file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, modelPath)
	}

	if s.gate == nil {
		return nil, fmt.Errorf("no source control gate configured")
	}
	if err := s.gate.EnsureClean(); err != nil {
		return nil, err
	}
	commit, err := s.gate.Head()
	if err != nil {
		return nil, err
	}

	key := storageKey(modelName, commit, modelPath)

	f, err := os.Open(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	s.logger.Info("uploading model artifact",
		"model", modelName, "commit", commit, "key", key, "size", info.Size())

	up, err := s.backend.Upload(ctx, key, f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	// Upload succeeded; now record it. A registration failure leaves an
	// orphaned object in storage, never a dangling registry entry.
	reg, err := s.regFile.Load()
	if err != nil {
		return nil, err
	}
	ext := fileExtension(modelPath)
	if err := reg.Register(modelName, commit, key, info.Size(), ext); err != nil {
		return nil, err
	}
	if err := s.regFile.Save(reg); err != nil {
		return nil, err
	}

	return &StoreResult{
		Model:      modelName,
		CommitHash: commit,
		StorageURI: key,
		Size:       up.Size,
		Checksum:   up.Checksum,
	}, nil
}

// LoadResult describes a downloaded model artifact.
type LoadResult struct {
	Model      string
	StorageURI string
	OutputPath string
	Size       int64
}

// Load resolves a version selector and downloads the artifact to outputPath,
// creating parent directories as needed. Pure read path: it never mutates
// the registry.
func (s *ModelService) Load(ctx context.Context, selector, modelName, outputPath string) (*LoadResult, error) {
	if err := s.regFile.RequireExists(); err != nil {
		return nil, err
	}
	reg, err := s.regFile.Load()
	if err != nil {
		return nil, err
	}

	uri, found, err := reg.Resolve(selector, modelName)
	if err != nil {
		return nil, err
	}
	if !found {
		if selector == registry.LatestSelector {
			return nil, fmt.Errorf("%w for model %q", ErrNoLatest, modelName)
		}
		return nil, fmt.Errorf("%w for commit %q", ErrArtifactNotFound, selector)
	}

	rc, err := s.backend.Download(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer rc.Close()

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}

	s.logger.Info("downloaded model artifact",
		"model", modelName, "uri", uri, "output", outputPath, "size", n)

	return &LoadResult{
		Model:      modelName,
		StorageURI: uri,
		OutputPath: outputPath,
		Size:       n,
	}, nil
}

// List returns all registered model versions.
func (s *ModelService) List(_ context.Context) ([]registry.Artifact, error) {
	if err := s.regFile.RequireExists(); err != nil {
		return nil, err
	}
	reg, err := s.regFile.Load()
	if err != nil {
		return nil, err
	}
	return reg.List(), nil
}

// Rollback repoints a model's latest pointer to an earlier registered commit
// and persists the change.
func (s *ModelService) Rollback(_ context.Context, modelName, commitHash string) error {
	if err := s.regFile.RequireExists(); err != nil {
		return err
	}
	reg, err := s.regFile.Load()
	if err != nil {
		return err
	}
	if err := reg.SetLatest(modelName, commitHash); err != nil {
		return err
	}
	if err := s.regFile.Save(reg); err != nil {
		return err
	}

	s.logger.Info("rolled back latest pointer", "model", modelName, "commit", commitHash)
	return nil
}

// storageKey builds the object key for a model version. Artifacts without a
// file extension get "bin" so keys always carry one.
func storageKey(modelName, commit, modelPath string) string {
	return fmt.Sprintf("%s/%s.%s", modelName, commit, fileExtension(modelPath))
}

func fileExtension(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}
