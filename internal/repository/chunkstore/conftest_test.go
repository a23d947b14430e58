package chunkstore

import (
	"context"
	"testing"

	"github.com/vakil-cloud/lexsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchBM25Fn           func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchKNNFn            func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	supportsSparseSearchFn func(ctx context.Context) bool
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchBM25Fn != nil {
		return m.searchBM25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SupportsSparseSearch(ctx context.Context) bool {
	if m.supportsSparseSearchFn != nil {
		return m.supportsSparseSearchFn(ctx)
	}
	return false
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "lexsearch:chunks:idx", "lexsearch:")
	return repo, ms
}

func testVector() []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}
