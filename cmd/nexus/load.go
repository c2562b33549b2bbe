package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexusml/nexus/internal/registry"
)

var loadModelName string

var loadCmd = &cobra.Command{
	Use:   "load <commit-hash|latest> <output-path>",
	Short: "Download a model artifact",
	Long: `Load resolves a version selector (a commit hash, or "latest") through the
registry metadata file and downloads the artifact to the given path.`,
	Args: cobra.ExactArgs(2),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&loadModelName, "model-name", "n", "",
		`model name (required when the selector is "latest")`)
}

func runLoad(cmd *cobra.Command, args []string) error {
	selector, outputPath := args[0], args[1]

	if selector == registry.LatestSelector && loadModelName == "" {
		return fmt.Errorf(`model name is required when using "latest"; pass --model-name`)
	}

	svc, _, err := newService(false)
	if err != nil {
		return err
	}

	fmt.Println("Downloading model artifact...")
	res, err := svc.Load(context.Background(), selector, loadModelName, outputPath)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %s to %s (%d bytes)\n", selector, res.OutputPath, res.Size)
	return nil
}
