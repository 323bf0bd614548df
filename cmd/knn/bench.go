package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/knn/internal/config"
	"github.com/hyperjump/knn/internal/index"
	"github.com/hyperjump/knn/internal/vector"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare projection search against exact search on random data",
		Long: `Generate random Gaussian vectors, index them with both the projection and brute-force
searchers, and report recall and timing. Index parameters default to the config.`,
		Args: cobra.NoArgs,
		RunE: runBench,
	}
	cmd.Flags().Int("count", 10000, "number of vectors to index")
	cmd.Flags().Int("queries", 100, "number of queries")
	cmd.Flags().Int("limit", 10, "results per query")
	cmd.Flags().Int64("seed", 1, "random seed for data and basis")
	cmd.Flags().Int("dimensions", 0, "vector dimension (0 = config)")
	cmd.Flags().Int("projections", 0, "number of projections (0 = config)")
	cmd.Flags().Int("search-size", 0, "search size (default from config)")
	return cmd
}

// benchParams are the inputs of one benchmark run.
type benchParams struct {
	Count   int
	Queries int
	Limit   int
	Seed    int64
	Index   config.IndexConfig
}

// benchReport summarizes one benchmark run.
type benchReport struct {
	Recall      float64
	ProjectTime time.Duration
	ExactTime   time.Duration
	BuildTime   time.Duration
}

func runBench(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	p := benchParams{Index: env.cfg.Index}
	p.Count, _ = cmd.Flags().GetInt("count")
	p.Queries, _ = cmd.Flags().GetInt("queries")
	p.Limit, _ = cmd.Flags().GetInt("limit")
	p.Seed, _ = cmd.Flags().GetInt64("seed")
	if d, _ := cmd.Flags().GetInt("dimensions"); d > 0 {
		p.Index.Dimensions = d
	}
	if n, _ := cmd.Flags().GetInt("projections"); n > 0 {
		p.Index.Projections = n
	}
	if cmd.Flags().Changed("search-size") {
		p.Index.SearchSize, _ = cmd.Flags().GetInt("search-size")
	}
	if p.Count <= 0 || p.Queries <= 0 || p.Limit <= 0 {
		return fmt.Errorf("count, queries and limit must be positive")
	}

	report, err := runBenchmark(cmd.Context(), p)
	if err != nil {
		return err
	}
	writeBenchReport(cmd.OutOrStdout(), p, report)
	return nil
}

func runBenchmark(ctx context.Context, p benchParams) (*benchReport, error) {
	approx, err := index.New(index.Options{
		Type:        string(index.TypeProjection),
		Dimensions:  p.Index.Dimensions,
		Distance:    p.Index.Distance,
		Projections: p.Index.Projections,
		SearchSize:  p.Index.SearchSize,
		Seed:        p.Seed,
	})
	if err != nil {
		return nil, err
	}
	exact, err := index.New(index.Options{
		Type:       string(index.TypeBrute),
		Dimensions: p.Index.Dimensions,
		Distance:   p.Index.Distance,
	})
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(p.Seed))
	report := &benchReport{}
	start := time.Now()
	for i := 0; i < p.Count; i++ {
		v := randomVector(rng, p.Index.Dimensions)
		if err := approx.Add(ctx, v); err != nil {
			return nil, err
		}
		if err := exact.Add(ctx, v); err != nil {
			return nil, err
		}
	}
	report.BuildTime = time.Since(start)

	var recallSum float64
	for i := 0; i < p.Queries; i++ {
		q := randomVector(rng, p.Index.Dimensions)

		t := time.Now()
		got, err := approx.Search(ctx, q, p.Limit)
		if err != nil {
			return nil, err
		}
		report.ProjectTime += time.Since(t)

		t = time.Now()
		want, err := exact.Search(ctx, q, p.Limit)
		if err != nil {
			return nil, err
		}
		report.ExactTime += time.Since(t)

		recallSum += index.Recall(got, want)
	}
	report.Recall = recallSum / float64(p.Queries)
	return report, nil
}

func randomVector(rng *rand.Rand, dim int) vector.Vector {
	v := vector.New(dim)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	return v
}

func writeBenchReport(w io.Writer, p benchParams, r *benchReport) {
	fmt.Fprintf(w, "vectors=%d queries=%d limit=%d dimension=%d projections=%d search_size=%d distance=%s\n",
		p.Count, p.Queries, p.Limit, p.Index.Dimensions, p.Index.Projections, p.Index.SearchSize, p.Index.Distance)
	fmt.Fprintf(w, "build:      %v\n", r.BuildTime)
	fmt.Fprintf(w, "projection: %v/query\n", r.ProjectTime/time.Duration(p.Queries))
	fmt.Fprintf(w, "exact:      %v/query\n", r.ExactTime/time.Duration(p.Queries))
	fmt.Fprintf(w, "recall@%d:  %.3f\n", p.Limit, r.Recall)
}
