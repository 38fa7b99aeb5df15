// Command velvetctl runs operational tasks against the studio backend:
// ledger migrations, Shopify callback signing and Klaviyo event reads.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/velvet/backend/internal/infrastructure/config"
	"github.com/velvet/backend/internal/infrastructure/logger"
)

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "velvetctl",
		Short:         "Operate the Velvet studio backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(newMigrateCmd(), newHMACCmd(), newEventsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration and a console logger on stderr, so that
// command output on stdout stays machine readable.
func setup() (*config.Config, *zap.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, log, nil
}
