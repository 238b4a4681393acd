// Package cmd wires the integra command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/config"
	"github.com/integralabs/integra-harvester/internal/logging"
	"github.com/integralabs/integra-harvester/internal/metrics"
)

var cfgFile string

// appKeyType is the key for storing the app in the command context.
type appKeyType string

const appKey appKeyType = "app"

// app carries the services every subcommand needs. It is built once in
// PersistentPreRunE and travels through the command context.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// appFrom retrieves the app injected by the root command.
func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey).(*app)
	if !ok || a == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return a, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integra",
		Short: "Harvester and dimensional ETL for institutional advisor portals.",
		Long: `integra crawls the public portfolio portals of configured federal
institutions, persists advisors and their completed undergraduate theses, and
reshapes the harvest into a dimensional warehouse for analysis.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			metrics.Init()

			ctx := context.WithValue(cmd.Context(), appKey, &app{cfg: cfg, logger: logger})
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app); ok && a != nil {
				a.close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./integra.yaml)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newEtlCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newUnifyCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
