package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/api"
	"github.com/integralabs/integra-harvester/internal/rawstore"
)

// newServeCmd builds the serve subcommand.
func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status HTTP server (health, metrics, harvest status).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if port == 0 {
				port = a.cfg.Server.Port
			}

			store, err := rawstore.Open(a.cfg.DB.RawPath)
			if err != nil {
				return fmt.Errorf("open raw store: %w", err)
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(store, a.logger)
			if err := srv.ListenAndServe(ctx, port); err != nil {
				return err
			}
			a.logger.Info("server stopped", zap.Int("port", port))
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (defaults to server.port from config)")
	return cmd
}
