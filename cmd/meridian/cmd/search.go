package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var vectorCSV string
	var k int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a k-nearest-neighbor query against the vector index",
		Long: `Searches the vector index with a pre-computed embedding, since Meridian
never computes embeddings itself. --vector takes a comma-separated list of
floats matching the index's configured dimensionality.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if vectorCSV == "" {
				return fmt.Errorf("--vector is required")
			}
			query, err := parseVector(vectorCSV)
			if err != nil {
				return err
			}

			eng, err := openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			results, err := eng.Search(query, k)
			if err != nil {
				return err
			}

			for i, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s (score=%.4f)\n", i+1, r.DocID, r.Score)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&vectorCSV, "vector", "", "comma-separated query vector, e.g. 0.1,0.2,0.3")
	cmd.Flags().IntVar(&k, "k", 10, "number of results to return")
	return cmd
}

func parseVector(csv string) ([]float32, error) {
	parts := strings.Split(csv, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %d (%q): %w", i, p, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
