package db

import "github.com/vakil-cloud/lexsearch/internal/domain/search/filter"

// TextQuery is the input for BM25 text search over chunk content.
type TextQuery struct {
	IndexName    string
	Query        string
	Filters      filter.Filters
	TopK         int
	ReturnFields []string
}

// KNNQuery is the input for vector similarity search over chunk embeddings.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	Filters      filter.Filters
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single chunk hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
