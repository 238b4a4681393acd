package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/courses"
	"github.com/integralabs/integra-harvester/internal/mart"
)

// newUnifyCmd builds the unify-courses subcommand.
func newUnifyCmd() *cobra.Command {
	var (
		threshold   int
		mappingPath string
	)

	cmd := &cobra.Command{
		Use:   "unify-courses",
		Short: "Group near-duplicate course names in the warehouse.",
		Long: `unify-courses clusters the course dimension by token-sort similarity
and rewrites each course's unified name to its group's canonical spelling.
Optionally writes the name-to-canonical mapping as JSON for review.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if threshold == 0 {
				threshold = a.cfg.Courses.SimilarityThreshold
			}

			store, err := mart.Open(a.cfg.DB.MartPath)
			if err != nil {
				return fmt.Errorf("open warehouse: %w", err)
			}
			defer store.Close()

			names, err := store.CourseNames(cmd.Context())
			if err != nil {
				return err
			}

			mapping := courses.NewGrouper(threshold).Group(names)
			updated, err := store.UpdateUnifiedNames(cmd.Context(), mapping)
			if err != nil {
				return err
			}

			if mappingPath != "" {
				data, err := json.MarshalIndent(mapping, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal mapping: %w", err)
				}
				if err := os.WriteFile(mappingPath, data, 0o644); err != nil {
					return fmt.Errorf("write mapping file: %w", err)
				}
			}

			a.logger.Info("course unification complete",
				zap.Int("courses", len(names)),
				zap.Int64("updated", updated),
				zap.Int("threshold", threshold))
			return nil
		},
	}

	cmd.Flags().IntVarP(&threshold, "threshold", "t", 0,
		"similarity threshold 1-100 (defaults to courses.similarity_threshold from config)")
	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "write the unification mapping to this JSON file")
	return cmd
}
