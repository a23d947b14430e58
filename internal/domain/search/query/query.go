package query

import (
	"fmt"
	"strings"

	"github.com/vakil-cloud/lexsearch/internal/domain"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/filter"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length.
	MaxQueryLength = 4096
	DefaultTopK    = 5
	MaxTopK        = 100
)

// Query is a validated, immutable retrieval request. Override filters, when
// set, win over filters inferred from the query text.
type Query struct {
	raw        string
	normalized string
	overrides  filter.Filters
	topK       int
}

// New validates and normalizes a retrieval request.
// Defaults: topK=5, clamped to MaxTopK.
func New(text string, overrides filter.Filters, topK int) (Query, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Query{}, fmt.Errorf("%w: query text is required", domain.ErrBadRequest)
	}
	if len(raw) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrBadRequest, MaxQueryLength)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	return Query{
		raw:        raw,
		normalized: Normalize(raw),
		overrides:  overrides,
		topK:       topK,
	}, nil
}

// Raw returns the query text as the user typed it.
func (q *Query) Raw() string { return q.raw }

// Normalized returns the lowercased, whitespace-collapsed query text used
// for retrieval and fingerprinting.
func (q *Query) Normalized() string { return q.normalized }

// Overrides returns the explicit filter override, empty when none was given.
func (q *Query) Overrides() filter.Filters { return q.overrides }

// TopK returns the requested result count.
func (q *Query) TopK() int { return q.topK }

// Normalize lowercases text and collapses runs of whitespace to single
// spaces. Two queries differing only in case or spacing share a fingerprint.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
