package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/mart"
)

// newExportCmd builds the export subcommand.
func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the warehouse as denormalized JSON lines.",
		Long: `export joins the star schema back into one flat row per thesis and
writes them as JSON lines, one object per line, ordered by fact id.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			store, err := mart.Open(a.cfg.DB.MartPath)
			if err != nil {
				return fmt.Errorf("open warehouse: %w", err)
			}
			defer store.Close()

			rows, err := store.FlatRows(cmd.Context())
			if err != nil {
				return err
			}

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				out = f
			}

			enc := json.NewEncoder(out)
			for _, row := range rows {
				if err := enc.Encode(row); err != nil {
					return fmt.Errorf("encode export row: %w", err)
				}
			}
			a.logger.Info("export complete", zap.Int("rows", len(rows)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (defaults to stdout)")
	return cmd
}
