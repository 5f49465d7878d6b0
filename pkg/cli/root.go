// Package cli implements the curator command-line interface. Commands
// parse arguments and print results; all curation logic lives in the
// core packages behind internal/app.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"econ-curator/internal/app"
	"econ-curator/internal/config"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "curator",
		Short:         "Economic indicator dataset curation",
		Long:          "Search the indicator catalog, queue curation jobs, and run the fetch-clean-document pipeline.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newSearchCmd(),
		newEnqueueCmd(),
		newQueueCmd(),
		newHistoryCmd(),
		newCancelCmd(),
		newRunCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// newApp loads configuration and wires the core. Each command builds its
// own app so the CLI stays stateless between invocations.
func newApp() (*app.App, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}
	return app.New(cfg, logger)
}
