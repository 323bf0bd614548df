package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/knn/internal/models"
	"github.com/hyperjump/knn/internal/service"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Total:      2,
		IndexSize:  10,
		SearchSize: 4,
		QueryTime:  3,
		Results: []*models.SearchResult{
			{Rank: 1, Distance: 0, Item: &models.Item{ID: "a", Label: "origin", Vector: []float64{0, 0}}},
			{Rank: 2, Distance: 1.5, Item: &models.Item{ID: "b", Ordinal: 1, Vector: []float64{1.5, 0}}},
		},
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Total != 2 || decoded.SearchSize != 4 || len(decoded.Results) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Results[1].Item.ID != "b" || decoded.Results[1].Distance != 1.5 {
		t.Errorf("decoded result = %+v", decoded.Results[1])
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Found 2 results", "search size 4", "ID: a", "Label: origin", "Rank: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSearchResults_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "1\ta\t0\torigin") {
		t.Errorf("line 0 = %q", lines[0])
	}
}

func TestWriteStats(t *testing.T) {
	stats := &service.Stats{Type: "projection", Dimension: 3, IndexSize: 5, SearchSize: 10, StoredItems: 5}
	var buf bytes.Buffer
	if err := WriteStats(&buf, stats, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "projection") || !strings.Contains(buf.String(), "Search size:  10") {
		t.Errorf("text stats: %s", buf.String())
	}
	buf.Reset()
	if err := WriteStats(&buf, stats, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded service.Stats
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded != *stats {
		t.Errorf("decoded stats = %+v", decoded)
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"", "text", "compact", "json"} {
		if _, err := ParseOutputFormat(s); err != nil {
			t.Errorf("ParseOutputFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestFormatVector(t *testing.T) {
	tests := []struct {
		v    []float64
		max  int
		want string
	}{
		{[]float64{1, 2.5}, 8, "[1, 2.5]"},
		{[]float64{1, 2, 3, 4}, 2, "[1, 2, ... (+2)]"},
		{nil, 3, "[]"},
		{[]float64{1, 2, 3}, 0, "[1, 2, 3]"},
	}
	for _, tt := range tests {
		if got := FormatVector(tt.v, tt.max); got != tt.want {
			t.Errorf("FormatVector(%v, %d) = %q, want %q", tt.v, tt.max, got, tt.want)
		}
	}
}
