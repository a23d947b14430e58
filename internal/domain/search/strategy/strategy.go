package strategy

import "strings"

// Strategy is one independent retrieval signal. The set is closed: adding a
// strategy means adding a constant here plus a dispatcher leg and a fusion
// adapter, not a new type.
type Strategy string

// Retrieval strategy constants.
const (
	// Lexical is term-match retrieval scored by BM25.
	Lexical Strategy = "lexical"
	// Dense is nearest-neighbor retrieval over the query embedding.
	Dense Strategy = "dense"
	// Sparse is sparse-semantic retrieval, when the record store supports it.
	Sparse Strategy = "sparse"
)

// All returns every known strategy in canonical order.
func All() []Strategy {
	return []Strategy{Lexical, Dense, Sparse}
}

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == Lexical || s == Dense || s == Sparse
}

// SetVersion identifies the strategy set for cache fingerprinting. Cached
// results become stale when the set of contributing strategies changes, so
// the version participates in the fingerprint.
func SetVersion(enabled []Strategy) string {
	names := make([]string, 0, len(enabled))
	for _, s := range All() {
		for _, e := range enabled {
			if s == e {
				names = append(names, string(s))
				break
			}
		}
	}
	return "v1:" + strings.Join(names, "+")
}
