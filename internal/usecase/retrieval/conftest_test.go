package retrieval

import (
	"context"
	"sync"
	"time"

	"github.com/vakil-cloud/lexsearch/internal/domain"
	domguard "github.com/vakil-cloud/lexsearch/internal/domain/guardrail"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/filter"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/fused"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/subresult"
)

// fakeStore is a hand-written RecordStore with per-leg behavior.
type fakeStore struct {
	mu sync.Mutex

	lexicalHits []subresult.Hit
	lexicalErr  error
	denseHits   []subresult.Hit
	denseErr    error
	sparseHits  []subresult.Hit
	sparseErr   error
	sparse      bool

	// delay makes every leg block, for timeout tests.
	delay time.Duration

	lexicalCalls int
	denseCalls   int
	sparseCalls  int
	lastFilters  filter.Filters
	lastK        int
}

func (f *fakeStore) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeStore) SearchLexical(
	ctx context.Context, _ string, flt filter.Filters, k int,
) (subresult.SubResult, error) {
	f.mu.Lock()
	f.lexicalCalls++
	f.lastFilters = flt
	f.lastK = k
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return subresult.New(strategy.Lexical, nil), err
	}
	if f.lexicalErr != nil {
		return subresult.New(strategy.Lexical, nil), f.lexicalErr
	}
	return subresult.New(strategy.Lexical, f.lexicalHits), nil
}

func (f *fakeStore) SearchDense(
	ctx context.Context, _ []float32, flt filter.Filters, k int,
) (subresult.SubResult, error) {
	f.mu.Lock()
	f.denseCalls++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return subresult.New(strategy.Dense, nil), err
	}
	if f.denseErr != nil {
		return subresult.New(strategy.Dense, nil), f.denseErr
	}
	return subresult.New(strategy.Dense, f.denseHits), nil
}

func (f *fakeStore) SearchSparse(
	ctx context.Context, _ string, flt filter.Filters, k int,
) (subresult.SubResult, error) {
	f.mu.Lock()
	f.sparseCalls++
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return subresult.New(strategy.Sparse, nil), err
	}
	if f.sparseErr != nil {
		return subresult.New(strategy.Sparse, nil), f.sparseErr
	}
	return subresult.New(strategy.Sparse, f.sparseHits), nil
}

func (f *fakeStore) SupportsSparse(context.Context) bool { return f.sparse }

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lexicalCalls + f.denseCalls + f.sparseCalls
}

// fakeEmbedder returns a fixed vector or error.
type fakeEmbedder struct {
	vec []float32
	err error

	mu    sync.Mutex
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec, TotalTokens: 3}, nil
}

// fakeGate allows everything unless a reason is set.
type fakeGate struct {
	reason domguard.Reason
}

func (f *fakeGate) Check(string) domguard.Decision {
	if f.reason != "" {
		return domguard.Refuse(f.reason)
	}
	return domguard.Allow()
}

// fakeCache is an unbounded map, no TTL. Counted and uncounted lookups are
// tracked separately.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]fused.Result
	puts    int
	gets    int
	peeks   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]fused.Result)}
}

func (f *fakeCache) Get(fp string) (fused.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	r, ok := f.entries[fp]
	return r, ok
}

func (f *fakeCache) Peek(fp string) (fused.Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peeks++
	r, ok := f.entries[fp]
	return r, ok
}

func (f *fakeCache) Put(fp string, r fused.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[fp] = r
	f.puts++
}

func (f *fakeCache) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

func (f *fakeCache) counts() (gets, peeks int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.peeks
}

// fakeExtractor returns fixed filters.
type fakeExtractor struct {
	filters filter.Filters
}

func (f *fakeExtractor) Extract(string) filter.Filters { return f.filters }

func hit(id string) subresult.Hit {
	return subresult.Hit{ChunkID: id, Score: 1}
}

func hitIDs(r fused.Result) []string {
	ids := make([]string, 0, r.Len())
	for _, h := range r.Hits() {
		ids = append(ids, h.ChunkID)
	}
	return ids
}
