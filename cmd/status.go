package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/integralabs/integra-harvester/internal/rawstore"
)

// newStatusCmd builds the status subcommand.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print per-institution harvest counts from the raw store.",
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

			summary, err := store.StatusSummary(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Institution", "Advisors", "Theses"})
			for _, inst := range summary.Institutions {
				table.Append([]string{
					inst.Code,
					strconv.Itoa(inst.Advisors),
					strconv.Itoa(inst.Theses),
				})
			}
			table.SetFooter([]string{
				"TOTAL",
				strconv.Itoa(summary.TotalAdvisors),
				strconv.Itoa(summary.TotalTheses),
			})
			table.Render()
			return nil
		},
	}
}
