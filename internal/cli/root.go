// Package cli implements the docbatch command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Sternrassler/docbatch/internal/config"
	"github.com/Sternrassler/docbatch/pkg/logging"
)

// NewRootCmd creates the root command with the fetch and serve subcommands.
func NewRootCmd(version string) *cobra.Command {
	var (
		configPath string
		cfg        config.Config
	)

	cmd := &cobra.Command{
		Use:           "docbatch",
		Short:         "Batch document fetches against a key-limited document store",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.Log.Level, _ = cmd.Flags().GetString("log-level")
			}

			lc := loaded.LoggingConfig()
			lc.Output = cmd.ErrOrStderr()
			logging.Setup(lc)

			cfg = loaded
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().String("log-level", "", "override log level (debug, info, warn, error, disabled)")

	current := func() *config.Config { return &cfg }
	cmd.AddCommand(
		newFetchCmd(current),
		newServeCmd(current),
	)
	return cmd
}
