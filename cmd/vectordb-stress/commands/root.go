// Package commands holds the cobra commands of the vectordb-stress CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// Persistent flags shared by every subcommand.
var (
	configPath string
	logLevel   string
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectordb-stress",
		Short: "Stress retrieval pipelines against a simulated vector database",
		Long: `vectordb-stress drives load profiles against an in-process vector
database simulation with configurable latency, connection limits,
caching and fault injection, then reports how every request ended.

Configuration is layered: defaults, an optional YAML file (--config),
a .env file and VECTORDB_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(
		NewRunCmd(),
		NewProfilesCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
