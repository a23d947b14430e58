package subresult

import (
	"github.com/vakil-cloud/lexsearch/internal/domain"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"
)

// Hit is one chunk in a strategy's ranking. Rank is 1-based within the
// owning SubResult; Score is on the strategy's own scale (BM25, cosine
// similarity, sparse model score) and is never compared across strategies.
// Chunk carries the hydrated metadata when the store returned it; fusion
// propagates it but never ranks on it.
type Hit struct {
	ChunkID string
	Score   float64
	Rank    int
	Chunk   domain.Chunk
}

// SubResult is the ordered output of one retrieval leg.
type SubResult struct {
	strategy strategy.Strategy
	hits     []Hit
}

// New builds a SubResult from hits in retrieval order. Ranks are assigned
// 1-based in slice order. A duplicate chunk ID is invalid input from the
// record store; occurrences beyond the first (best-ranked) are dropped.
func New(s strategy.Strategy, hits []Hit) SubResult {
	seen := make(map[string]struct{}, len(hits))
	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ChunkID]; dup {
			continue
		}
		seen[h.ChunkID] = struct{}{}
		h.Rank = len(kept) + 1
		kept = append(kept, h)
	}
	return SubResult{strategy: s, hits: kept}
}

// Strategy returns the strategy that produced this ranking.
func (r *SubResult) Strategy() strategy.Strategy { return r.strategy }

// Hits returns the ranked hits.
func (r *SubResult) Hits() []Hit { return r.hits }

// Len returns the number of hits.
func (r *SubResult) Len() int { return len(r.hits) }
