package retrieval

import (
	"sort"

	"github.com/vakil-cloud/lexsearch/internal/domain"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/fused"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/subresult"
)

// DefaultRRFK is the Reciprocal Rank Fusion smoothing constant (standard
// value from Cormack et al. 2009).
const DefaultRRFK = 60

// fuseRRF merges 1-3 strategy rankings into one via Reciprocal Rank Fusion:
// score(c) = sum of 1/(k + rank_s(c)) over the strategies in which c appears.
// Raw strategy scores are ignored on purpose: BM25, cosine similarity and
// sparse-model scores live on incomparable scales, while ordinal rank is
// scale-free and robust to per-strategy score drift.
//
// Ordering is fully deterministic: fused score descending, then the best
// (smallest) rank achieved in any contributing strategy, then chunk ID.
func fuseRRF(subs []subresult.SubResult, k, topK int) fused.Result {
	type scored struct {
		score      float64
		strategies []strategy.Strategy
		bestRank   int
		chunk      domain.Chunk
	}

	merged := make(map[string]*scored)

	for i := range subs {
		sub := &subs[i]
		for _, h := range sub.Hits() {
			s, ok := merged[h.ChunkID]
			if !ok {
				s = &scored{bestRank: h.Rank}
				merged[h.ChunkID] = s
			}
			s.score += 1.0 / float64(k+h.Rank)
			s.strategies = append(s.strategies, sub.Strategy())
			if h.Rank < s.bestRank {
				s.bestRank = h.Rank
			}
			// Any leg that hydrated the chunk will do; legs read the same
			// index record.
			if s.chunk.ID() == "" && h.Chunk.ID() != "" {
				s.chunk = h.Chunk
			}
		}
	}

	hits := make([]fused.Hit, 0, len(merged))
	for id, s := range merged {
		hits = append(hits, fused.Hit{
			ChunkID:    id,
			Score:      s.score,
			Strategies: canonicalOrder(s.strategies),
			BestRank:   s.bestRank,
			ActName:    s.chunk.ActName(),
			Section:    s.chunk.Section(),
			Domains:    s.chunk.Domains(),
			Content:    s.chunk.Text(),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].BestRank != hits[j].BestRank {
			return hits[i].BestRank < hits[j].BestRank
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	return fused.New(hits)
}

// canonicalOrder sorts contributing strategies into the fixed strategy
// order, so fusion output is invariant under input list reordering.
func canonicalOrder(contributed []strategy.Strategy) []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(contributed))
	for _, s := range strategy.All() {
		for _, c := range contributed {
			if c == s {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
