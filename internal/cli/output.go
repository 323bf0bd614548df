// Package cli provides output formatting for the knn command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/knn/internal/models"
	"github.com/hyperjump/knn/internal/service"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%s\t%.6g\t%s\n", r.Rank, r.Item.ID, r.Distance, r.Item.Label)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (index size %d, search size %d)\n\n",
		response.Total, response.QueryTime, response.IndexSize, response.SearchSize)
	for _, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Distance: %.6f\n", result.Rank, result.Distance)
		fmt.Fprintf(w, "ID: %s (ordinal %d)\n", result.Item.ID, result.Item.Ordinal)
		if result.Item.Label != "" {
			fmt.Fprintf(w, "Label: %s\n", result.Item.Label)
		}
		fmt.Fprintf(w, "Vector: %s\n", FormatVector(result.Item.Vector, 8))
	}
	if len(response.Results) > 0 {
		fmt.Fprintln(w)
	}
}

// WriteStats writes index statistics to w.
func WriteStats(w io.Writer, stats *service.Stats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "Index type:   %s\n", stats.Type)
	fmt.Fprintf(w, "Dimension:    %d\n", stats.Dimension)
	fmt.Fprintf(w, "Indexed:      %d\n", stats.IndexSize)
	fmt.Fprintf(w, "Stored items: %d\n", stats.StoredItems)
	fmt.Fprintf(w, "Search size:  %d\n", stats.SearchSize)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatVector renders up to max components of v, noting how many were left out.
func FormatVector(v []float64, max int) string {
	n := len(v)
	if max > 0 && n > max {
		n = max
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.FormatFloat(v[i], 'g', 6, 64)
	}
	s := "[" + strings.Join(parts, ", ")
	if n < len(v) {
		s += fmt.Sprintf(", ... (+%d)", len(v)-n)
	}
	return s + "]"
}
