package fused

import "github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"

// Hit is one chunk in the fused ranking. Strategies records which legs
// contributed; it feeds relevance diagnostics and evaluation, not fusion.
// The act/section/content fields are hydrated chunk metadata passed
// through from the record store.
type Hit struct {
	ChunkID    string              `json:"chunk_id"`
	Score      float64             `json:"score"`
	Strategies []strategy.Strategy `json:"strategies"`
	// BestRank is the smallest 1-based rank the chunk achieved in any
	// contributing strategy. Used as the first tie-breaker.
	BestRank int      `json:"best_rank"`
	ActName  string   `json:"act_name,omitempty"`
	Section  string   `json:"section_number,omitempty"`
	Domains  []string `json:"domains,omitempty"`
	Content  string   `json:"content,omitempty"`
}

// Result is the final fused ranking. Invariant: hits are ordered by score
// descending, ties broken by BestRank ascending, then ChunkID ascending.
type Result struct {
	hits []Hit
}

// New wraps already-ordered hits. Ordering is the fusion engine's job.
func New(hits []Hit) Result {
	return Result{hits: hits}
}

// Hits returns the ordered fused hits.
func (r Result) Hits() []Hit { return r.hits }

// Len returns the number of fused hits.
func (r Result) Len() int { return len(r.hits) }

// IsEmpty reports whether the fusion produced no hits.
func (r Result) IsEmpty() bool { return len(r.hits) == 0 }
