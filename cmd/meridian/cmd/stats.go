package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show counts across every core memory package",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			stats, err := eng.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Vectors:            %d (dim=%d, metric=%s)\n",
				stats.VectorIndex.TotalVectors, stats.VectorIndex.Dimension, stats.VectorIndex.Metric)
			fmt.Fprintf(cmd.OutOrStdout(), "Episodes:           %d (%d completed)\n",
				stats.EpisodeCount, stats.CompletedEpisodes)
			fmt.Fprintf(cmd.OutOrStdout(), "Semantic learnings: %d\n", stats.LearningCount)
			fmt.Fprintf(cmd.OutOrStdout(), "Summaries:          %d\n", stats.SummaryCount)
			fmt.Fprintf(cmd.OutOrStdout(), "Checkpoints:        %d\n", stats.CheckpointCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
