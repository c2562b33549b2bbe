package inference

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nexusml/nexus/internal/registry"
	"github.com/nexusml/nexus/internal/storage"
	"github.com/nexusml/nexus/internal/telemetry"
)

// Model is a loaded, servable model.
type Model struct {
	Name      string
	Selector  string
	URI       string
	LocalPath string
	Backend   Backend
}

// Loader resolves a model through the registry, downloads the artifact to a
// scratch directory, and instantiates the matching execution backend.
type Loader struct {
	regFile    *registry.File
	backend    storage.Storage
	scratchDir string
	runtimeURL string
	logger     *slog.Logger
}

// NewLoader creates a Loader. runtimeURL is the external model runtime used
// for artifacts the native evaluator cannot execute.
func NewLoader(regFile *registry.File, backend storage.Storage, scratchDir, runtimeURL string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		regFile:    regFile,
		backend:    backend,
		scratchDir: scratchDir,
		runtimeURL: runtimeURL,
		logger:     logger,
	}
}

// Load fetches and instantiates the model identified by (selector, name).
func (l *Loader) Load(ctx context.Context, modelName, selector string) (*Model, error) {
	start := time.Now()

	if err := l.regFile.RequireExists(); err != nil {
		return nil, err
	}
	reg, err := l.regFile.Load()
	if err != nil {
		return nil, err
	}

	uri, found, err := reg.Resolve(selector, modelName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no artifact for model %q selector %q", modelName, selector)
	}

	localPath, err := l.download(ctx, uri)
	if err != nil {
		return nil, err
	}

	backend, err := l.backendFor(localPath)
	if err != nil {
		return nil, err
	}

	telemetry.ModelLoadDuration.Observe(time.Since(start).Seconds())
	telemetry.ModelLoaded.Set(1)
	l.logger.Info("model loaded",
		"model", modelName, "selector", selector, "uri", uri,
		"duration", time.Since(start))

	return &Model{
		Name:      modelName,
		Selector:  selector,
		URI:       uri,
		LocalPath: localPath,
		Backend:   backend,
	}, nil
}

func (l *Loader) download(ctx context.Context, uri string) (string, error) {
	rc, err := l.backend.Download(ctx, uri)
	if err != nil {
		return "", fmt.Errorf("failed to download artifact %q: %w", uri, err)
	}
	defer rc.Close()

	localPath := filepath.Join(l.scratchDir, filepath.Base(uri))
	if err := os.MkdirAll(l.scratchDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	return localPath, nil
}

// backendFor selects the execution backend by artifact extension. JSON
// artifacts run in-process; everything else goes to the external runtime.
func (l *Loader) backendFor(localPath string) (Backend, error) {
	if strings.EqualFold(filepath.Ext(localPath), ".json") {
		return LoadNative(localPath)
	}
	if l.runtimeURL == "" {
		return nil, fmt.Errorf("artifact %q needs an external model runtime, but none is configured", filepath.Base(localPath))
	}
	return NewRemote(l.runtimeURL, l.logger), nil
}
