package domain

import "errors"

var (
	// ErrBadRequest signals malformed query or filter input.
	ErrBadRequest = errors.New("bad request")
	// ErrRetrievalUnavailable signals that every retrieval leg failed.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrEmbeddingUnavailable signals an unreachable embedding provider.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrSparseSearchNotSupported signals that the record store lacks a sparse-semantic scorer.
	ErrSparseSearchNotSupported = errors.New("sparse search not supported by record store")
	// ErrLegTimeout signals a retrieval leg that exceeded its deadline.
	ErrLegTimeout = errors.New("retrieval leg timed out")
)
