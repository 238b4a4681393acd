package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/etl"
	"github.com/integralabs/integra-harvester/internal/mart"
	"github.com/integralabs/integra-harvester/internal/rawstore"
)

// newEtlCmd builds the etl subcommand.
func newEtlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "etl",
		Short: "Rebuild the dimensional warehouse from the raw store.",
		Long: `etl reads every harvested thesis row, filters non-higher-education
courses, validates provenance, and replaces the warehouse with freshly built
dimensions, facts, and author/advisor bridges. Excluded rows land in the
rejection log with the stage that dropped them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			raw, err := rawstore.Open(a.cfg.DB.RawPath)
			if err != nil {
				return fmt.Errorf("open raw store: %w", err)
			}
			defer raw.Close()

			store, err := mart.Open(a.cfg.DB.MartPath)
			if err != nil {
				return fmt.Errorf("open warehouse: %w", err)
			}
			defer store.Close()

			report, err := etl.NewTransformer(a.cfg, a.logger).Run(cmd.Context(), raw, store)
			if err != nil {
				return err
			}

			a.logger.Info("warehouse rebuilt",
				zap.Int("input_rows", report.InputRows),
				zap.Int("facts_loaded", report.FactsLoaded),
				zap.Int("rejected_course_level", report.Rejections[etl.StageCourseLevel]),
				zap.Int("rejected_provenance", report.Rejections[etl.StageProvenance]),
				zap.Int("rejected_resolution", report.Rejections[etl.StageResolution]),
				zap.String("warehouse", store.Path()))
			return nil
		},
	}
}
