package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexusml/nexus/internal/config"
	"github.com/nexusml/nexus/internal/git"
	"github.com/nexusml/nexus/internal/registry"
	"github.com/nexusml/nexus/internal/services"
	"github.com/nexusml/nexus/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "nexus",
	Short:         "Model versioning and serving for ML artifacts",
	Long:          "nexus versions model artifacts against git commits and stores them in cloud storage.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command, printing any failure to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file")
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(versionCmd)
}

// newService builds the lifecycle service from configuration. withGate
// controls whether the source-control gate is required; read-only commands
// work outside a git repository.
func newService(withGate bool) (*services.ModelService, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	backend, err := storage.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	var gate services.SourceGate
	if withGate {
		g, err := git.NewGate(".")
		if err != nil {
			return nil, nil, err
		}
		gate = g
	}

	regFile := registry.NewFile(cfg.Registry.Path)
	return services.NewModelService(regFile, backend, gate, nil), cfg, nil
}

// remindToCommit nags the operator to version the metadata change alongside
// the code. The registry file is only useful to teammates once it is pushed.
func remindToCommit(cfg *config.Config) {
	fmt.Printf("\nAction required: git commit and git push the updated %s file.\n", cfg.Registry.Path)
}
