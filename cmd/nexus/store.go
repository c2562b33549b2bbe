package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store <model-path> <model-name>",
	Short: "Store a model artifact under the current commit",
	Long: `Store uploads a model artifact to the configured storage backend and
records it in the registry metadata file, keyed by the current git commit.
The repository must be clean so the recorded commit describes the code that
produced the model.`,
	Args: cobra.ExactArgs(2),
	RunE: runStore,
}

func runStore(cmd *cobra.Command, args []string) error {
	modelPath, modelName := args[0], args[1]

	svc, cfg, err := newService(true)
	if err != nil {
		return err
	}

	fmt.Println("Uploading model artifact...")
	res, err := svc.Store(context.Background(), modelName, modelPath)
	if err != nil {
		return err
	}

	fmt.Printf("Stored %s at commit %s\n", res.Model, res.CommitHash)
	fmt.Printf("Storage URI: %s\n", res.StorageURI)
	fmt.Printf("SHA-256: %s\n", res.Checksum)
	remindToCommit(cfg)
	return nil
}
