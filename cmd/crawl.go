package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/crawl"
	"github.com/integralabs/integra-harvester/internal/portal"
	"github.com/integralabs/integra-harvester/internal/progress"
	"github.com/integralabs/integra-harvester/internal/rawstore"
)

// newCrawlCmd builds the crawl subcommand.
func newCrawlCmd() *cobra.Command {
	var institution string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Harvest advisors and theses from the configured portals.",
		Long: `crawl pages through each selected institution's advisor listing, fetches
advisor detail documents with bounded concurrency, and persists everything to
the raw store. Rerunning is safe: rows already present are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			store, err := rawstore.Open(a.cfg.DB.RawPath)
			if err != nil {
				return fmt.Errorf("open raw store: %w", err)
			}
			defer store.Close()

			promObs, err := progress.NewPrometheusObserver(nil)
			if err != nil {
				return fmt.Errorf("register progress collectors: %w", err)
			}
			observer := progress.Multi{
				progress.NewLogObserver(a.logger),
				promObs,
			}

			client := portal.NewClient(a.cfg, a.logger)
			runner := crawl.NewRunner(a.cfg, client, store, observer, a.logger)

			reports, err := runner.Run(cmd.Context(), institution)
			if err != nil {
				return err
			}

			for _, rep := range reports {
				if rep.Err != nil {
					a.logger.Warn("institution finished with errors",
						zap.String("institution", rep.Code),
						zap.Error(rep.Err))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&institution, "institution", "i", crawl.SelectorAll,
		"institution code to crawl, or ALL for every configured institution")
	return cmd
}
