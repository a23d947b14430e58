package retrieval

import (
	"context"

	"github.com/vakil-cloud/lexsearch/internal/domain"
	domguard "github.com/vakil-cloud/lexsearch/internal/domain/guardrail"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/filter"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/fused"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/subresult"
)

// RecordStore is the capability contract over the indexed chunk corpus.
// Filters are applied by every leg as a hard pre-filter.
type RecordStore interface {
	SearchLexical(ctx context.Context, query string, f filter.Filters, k int) (subresult.SubResult, error)
	SearchDense(ctx context.Context, vector []float32, f filter.Filters, k int) (subresult.SubResult, error)
	SearchSparse(ctx context.Context, query string, f filter.Filters, k int) (subresult.SubResult, error)
	SupportsSparse(ctx context.Context) bool
}

// Embedder vectorizes query text for the dense leg.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// FilterExtractor infers structured filters from query text.
type FilterExtractor interface {
	Extract(text string) filter.Filters
}

// SafetyGate classifies queries before any retrieval work.
type SafetyGate interface {
	Check(text string) domguard.Decision
}

// ResultCache memoizes fused results by fingerprint. Implementations treat
// expired entries as misses. Peek is Get without hit/miss accounting; the
// orchestrator uses it for the in-flight double check so a cold fill is
// counted as one miss, not two.
type ResultCache interface {
	Get(fingerprint string) (fused.Result, bool)
	Peek(fingerprint string) (fused.Result, bool)
	Put(fingerprint string, r fused.Result)
}
