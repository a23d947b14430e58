package chunkstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/vakil-cloud/lexsearch/internal/db"
	"github.com/vakil-cloud/lexsearch/internal/domain"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/filter"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/subresult"
)

// store is the consumer interface for chunk retrieval (ISP).
type store interface {
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SupportsSparseSearch(ctx context.Context) bool
}

// Metadata fields returned with each hit. These mirror the index mapping
// the ingestion pipeline creates.
const (
	fieldContent = "content"
	fieldAct     = "act_name"
	fieldSection = "section_number"
	fieldDomains = "domains"
)

var returnFields = []string{fieldContent, fieldAct, fieldSection, fieldDomains}

// Repo implements the retrieval capability over the indexed chunk store.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a chunk store repository. keyPrefix is stripped from index
// keys to recover stable chunk IDs.
func New(s store, indexName, keyPrefix string) *Repo {
	return &Repo{store: s, indexName: indexName, keyPrefix: keyPrefix}
}

// SearchLexical runs BM25 term-match retrieval with filters as a hard pre-filter.
func (r *Repo) SearchLexical(
	ctx context.Context, query string, f filter.Filters, k int,
) (subresult.SubResult, error) {
	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    r.indexName,
		Query:        query,
		Filters:      f,
		TopK:         k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return subresult.SubResult{}, fmt.Errorf("search lexical: %w", err)
	}
	return r.toSubResult(strategy.Lexical, sr), nil
}

// SearchDense runs nearest-neighbor retrieval over the query embedding.
func (r *Repo) SearchDense(
	ctx context.Context, vector []float32, f filter.Filters, k int,
) (subresult.SubResult, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		Filters:      f,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		return subresult.SubResult{}, fmt.Errorf("search dense: %w", err)
	}
	return r.toSubResult(strategy.Dense, sr), nil
}

// SearchSparse runs sparse-semantic retrieval when the backend supports it.
// The bundled Redis backend reports no sparse support, so the dispatcher
// never reaches this path against it.
func (r *Repo) SearchSparse(
	_ context.Context, _ string, _ filter.Filters, _ int,
) (subresult.SubResult, error) {
	return subresult.SubResult{}, domain.ErrSparseSearchNotSupported
}

// SupportsSparse proxies the capability check from the store.
func (r *Repo) SupportsSparse(ctx context.Context) bool {
	return r.store.SupportsSparseSearch(ctx)
}

// toSubResult converts store entries into a ranked SubResult, recovering
// chunk IDs from index keys and hydrating chunk metadata from the returned
// fields. Ranks follow store order; the SubResult constructor drops
// duplicate IDs keeping the best rank.
func (r *Repo) toSubResult(s strategy.Strategy, sr *db.SearchResult) subresult.SubResult {
	hits := make([]subresult.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := strings.TrimPrefix(e.Key, r.keyPrefix)
		hits = append(hits, subresult.Hit{
			ChunkID: id,
			Score:   e.Score,
			Chunk:   toChunk(id, e.Fields),
		})
	}
	return subresult.New(s, hits)
}

// toChunk builds chunk metadata from returned hash fields. Tag fields
// store multiple values comma-separated.
func toChunk(id string, fields map[string]string) domain.Chunk {
	var domains []string
	if raw := fields[fieldDomains]; raw != "" {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.TrimSpace(d); d != "" {
				domains = append(domains, d)
			}
		}
	}
	return domain.NewChunk(id, fields[fieldAct], fields[fieldSection], domains, fields[fieldContent])
}
