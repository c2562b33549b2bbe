// factory.go implements the storage backend registry and factory, mapping
// provider strings (local, s3, gcs, azure) to constructor functions and
// dispatching New calls by the storage.provider configuration enum.
package storage

import (
	"fmt"

	"github.com/nexusml/nexus/internal/config"
)

// FactoryFunc constructs a storage backend from the application configuration.
type FactoryFunc func(*config.Config) (Storage, error)

var factories = make(map[string]FactoryFunc)

// Register registers a storage backend factory under a provider name.
func Register(name string, factory FactoryFunc) {
	factories[name] = factory
}

// New creates the storage backend selected by cfg.Storage.Provider.
func New(cfg *config.Config) (Storage, error) {
	factory, ok := factories[cfg.Storage.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported storage provider: %s (must be 'local', 's3', 'gcs', or 'azure')", cfg.Storage.Provider)
	}

	return factory(cfg)
}
