package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <commit-hash> <model-name>",
	Short: "Repoint a model's latest version to an earlier commit",
	Long: `Rollback sets the latest pointer of a model to a previously stored commit.
The artifact itself is untouched; only the pointer in the registry metadata
file changes.`,
	Args: cobra.ExactArgs(2),
	RunE: runRollback,
}

func runRollback(cmd *cobra.Command, args []string) error {
	commitHash, modelName := args[0], args[1]

	svc, cfg, err := newService(false)
	if err != nil {
		return err
	}

	if err := svc.Rollback(context.Background(), modelName, commitHash); err != nil {
		return err
	}

	fmt.Printf("Rolled back model %q to commit %s\n", modelName, commitHash)
	remindToCommit(cfg)
	return nil
}
