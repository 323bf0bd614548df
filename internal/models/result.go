package models

// SearchResult is a single nearest-neighbor hit.
type SearchResult struct {
	Item     *Item   `json:"item"`
	Distance float64 `json:"distance"`
	Rank     int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results []*SearchResult `json:"results"`
	Total   int             `json:"total"`
	// IndexSize is the number of vectors in the index when the query ran.
	IndexSize  int   `json:"index_size"`
	SearchSize int   `json:"search_size"`
	QueryTime  int64 `json:"query_time_ms"`
}
