package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/cli"
	"github.com/hyperjump/knn/internal/dataset"
	"github.com/hyperjump/knn/internal/fileid"
	"github.com/hyperjump/knn/internal/models"
	"github.com/hyperjump/knn/internal/service"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <v1,v2,...>",
		Short: "Store a vector",
		Long:  `Store a vector and index it. Components may be separated by commas or spaces.`,
		Example: `  knn add 0.1,0.2,0.3 --label first
  knn add --id p7 -- -1,0,2`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAdd,
	}
	cmd.Flags().String("id", "", "item ID (generated when empty)")
	cmd.Flags().String("label", "", "item label")
	cmd.Flags().String("server", "", "server URL; when empty the database is opened directly")
	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	v, err := parseVectorArgs(args)
	if err != nil {
		return fmt.Errorf("invalid vector: %w", err)
	}
	id, _ := cmd.Flags().GetString("id")
	label, _ := cmd.Flags().GetString("label")
	input := &models.ItemInput{ID: id, Label: label, Vector: v}

	if serverURL, _ := cmd.Flags().GetString("server"); serverURL != "" {
		var out struct {
			ID      string `json:"id"`
			Ordinal int    `json:"ordinal"`
		}
		if err := callAPI(http.MethodPost, serverURL, "/api/v1/vectors", input, &out, http.StatusCreated); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s (ordinal %d)\n", out.ID, out.Ordinal)
		return nil
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()
	components, err := initializeComponents(cmd.Context(), env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer components.Close()

	item, err := components.Engine.Add(cmd.Context(), input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s (ordinal %d)\n", item.ID, item.Ordinal)
	return nil
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <v1,v2,...>",
		Short: "Find the nearest stored vectors",
		Example: `  knn search 0.1,0.2,0.3 --limit 5
  knn search --search-size 50 --output json -- -1,0,2`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().Int("limit", 0, "number of results (0 = config default)")
	cmd.Flags().Int("search-size", 0, "candidates harvested per side of each projection for this query (0 = index setting)")
	cmd.Flags().String("output", "text", "output format: text, compact, or json")
	cmd.Flags().String("server", "", "server URL; when empty the database is opened directly")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	v, err := parseVectorArgs(args)
	if err != nil {
		return fmt.Errorf("invalid vector: %w", err)
	}
	outputFlag, _ := cmd.Flags().GetString("output")
	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	searchSize, _ := cmd.Flags().GetInt("search-size")
	query := &models.SearchQuery{Vector: v, Limit: limit, SearchSize: searchSize}

	if serverURL, _ := cmd.Flags().GetString("server"); serverURL != "" {
		var response models.SearchResponse
		if err := callAPI(http.MethodPost, serverURL, "/api/v1/search", query, &response, http.StatusOK); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return cli.WriteSearchResults(cmd.OutOrStdout(), &response, format)
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()
	components, err := initializeComponents(cmd.Context(), env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer components.Close()

	response, err := components.Engine.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return cli.WriteSearchResults(cmd.OutOrStdout(), response, format)
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Load .jsonl or .csv datasets into the store",
		Long: `Load datasets into the store. JSON lines files hold one {"id","label","vector"} object per line;
CSV files hold id,label,v1,v2,... rows with an optional header. Rows without an ID get one derived from the file path and row,
and items whose ID is already stored are skipped, so re-importing a file is harmless.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()
	components, err := initializeComponents(cmd.Context(), env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer components.Close()

	for _, path := range args {
		items, err := dataset.ReadFile(path)
		if err != nil {
			return err
		}
		fileid.AssignItemIDs(path, items)
		added, err := components.Engine.Import(cmd.Context(), items)
		if err != nil {
			return fmt.Errorf("%s: %w (added %d before failing)", path, err, added)
		}
		env.logger.Debug("dataset imported", zap.String("path", path), zap.Int("added", added))
		fmt.Fprintf(cmd.OutOrStdout(), "%s: added %d of %d items\n", path, added, len(items))
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and storage statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().String("output", "text", "output format: text or json")
	cmd.Flags().String("server", "", "server URL; when empty the database is opened directly")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	outputFlag, _ := cmd.Flags().GetString("output")
	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}

	if serverURL, _ := cmd.Flags().GetString("server"); serverURL != "" {
		var status struct {
			Index service.Stats `json:"index"`
		}
		if err := callAPI(http.MethodGet, serverURL, "/api/v1/status", nil, &status, http.StatusOK); err != nil {
			return err
		}
		return cli.WriteStats(cmd.OutOrStdout(), &status.Index, format)
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()
	components, err := initializeComponents(cmd.Context(), env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer components.Close()

	stats, err := components.Engine.Stats(cmd.Context())
	if err != nil {
		return err
	}
	return cli.WriteStats(cmd.OutOrStdout(), stats, format)
}
