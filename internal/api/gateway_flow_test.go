package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusml/nexus/internal/config"
	"github.com/nexusml/nexus/internal/inference"
	"github.com/nexusml/nexus/internal/registry"
	"github.com/nexusml/nexus/internal/storage"

	_ "github.com/nexusml/nexus/internal/storage/local"
)

// TestGatewayServesStoredModel walks the full path a deployment takes: an
// artifact lands in local storage and the registry, the loader resolves and
// downloads it, and the gateway serves predictions from it.
func TestGatewayServesStoredModel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	baseDir := t.TempDir()
	cfg := &config.Config{
		Registry: config.RegistryConfig{Path: filepath.Join(baseDir, registry.DefaultFileName)},
		Storage: config.StorageConfig{
			Provider: "local",
			Local:    config.LocalStorageConfig{BasePath: filepath.Join(baseDir, "artifacts")},
		},
		Batch: config.BatchConfig{MaxSize: 4, Linger: 5 * time.Millisecond},
	}

	backend, err := storage.New(cfg)
	require.NoError(t, err)

	// Stage the artifact the way the CLI would.
	artifact := filepath.Join(baseDir, "model.json")
	require.NoError(t, os.WriteFile(artifact, []byte(`{"weights": [2, 3], "bias": 1}`), 0o600))

	f, err := os.Open(artifact)
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)

	key := "demo/abc123def456.json"
	_, err = backend.Upload(context.Background(), key, f, info.Size())
	require.NoError(t, err)

	regFile := registry.NewFile(cfg.Registry.Path)
	reg := registry.New()
	require.NoError(t, reg.Register("demo", "abc123def456", key, info.Size(), "json"))
	require.NoError(t, regFile.Save(reg))

	// Gateway startup path.
	loader := inference.NewLoader(regFile, backend, filepath.Join(baseDir, "scratch"), "", nil)
	model, err := loader.Load(context.Background(), "demo", registry.LatestSelector)
	require.NoError(t, err)

	srv := NewServer(cfg)
	srv.SetModel(model)
	srv.Start()
	t.Cleanup(srv.Stop)
	router := srv.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/predict", strings.NewReader(`{"data": [1, 2]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	// 2*1 + 3*2 + 1
	assert.Contains(t, w.Body.String(), `"result":9`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
