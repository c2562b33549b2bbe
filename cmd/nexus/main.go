// nexus is the model-versioning CLI: store, load, list, and rollback model
// artifacts tracked in the registry metadata file.
package main

import (
	"os"

	// Register storage backends.
	_ "github.com/nexusml/nexus/internal/storage/azure"
	_ "github.com/nexusml/nexus/internal/storage/gcs"
	_ "github.com/nexusml/nexus/internal/storage/local"
	_ "github.com/nexusml/nexus/internal/storage/s3"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
