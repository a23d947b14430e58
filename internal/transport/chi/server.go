package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chiRouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vakil-cloud/lexsearch/internal/domain"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/filter"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/fused"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/query"
	healthuc "github.com/vakil-cloud/lexsearch/internal/usecase/health"
	retrievaluc "github.com/vakil-cloud/lexsearch/internal/usecase/retrieval"
)

// Error response codes.
const (
	codeBadRequest           = "bad_request"
	codeQueryRefused         = "query_refused"
	codeRetrievalUnavailable = "retrieval_unavailable"
	codeEmbeddingProvider    = "embedding_provider_error"
	codeNotImplemented       = "not_implemented"
	codeInternalError        = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the retrieval pipeline over HTTP.
type Server struct {
	retrieval     *retrievaluc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(retrieval *retrievaluc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		retrieval: retrieval,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrBadRequest, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, codeRetrievalUnavailable),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrSparseSearchNotSupported, http.StatusNotImplemented, codeNotImplemented),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chiRouter.Router) {
	r.Post("/v1/retrieve", s.Retrieve)
	r.Post("/v1/retrieve/stream", s.RetrieveStream)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type filtersPayload struct {
	Acts    []string `json:"acts,omitempty"`
	Domains []string `json:"domains,omitempty"`
	Section string   `json:"section,omitempty"`
}

type retrieveRequest struct {
	Query   string          `json:"query"`
	TopK    int             `json:"top_k,omitempty"`
	Filters *filtersPayload `json:"filters,omitempty"`
}

type retrieveResponse struct {
	Results []fused.Hit `json:"results"`
	Total   int         `json:"total"`
}

type refusalResponse struct {
	Code    string `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	q, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	outcome, err := s.retrieval.Retrieve(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if outcome.Refused() {
		// A refusal is a policy decision, not a server fault.
		writeJSON(w, http.StatusUnprocessableEntity, refusalResponse{
			Code:    codeQueryRefused,
			Reason:  string(outcome.Reason()),
			Message: "query refused by safety policy",
		})
		return
	}

	res := outcome.Result()
	writeJSON(w, http.StatusOK, retrieveResponse{
		Results: hitsOrEmpty(res.Hits()),
		Total:   res.Len(),
	})
}

// RetrieveStream handles POST /v1/retrieve/stream as Server-Sent Events.
// Each pipeline event is one SSE message; the stream ends after the
// terminal event.
func (s *Server) RetrieveStream(w http.ResponseWriter, r *http.Request) {
	q, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range s.retrieval.RetrieveStream(r.Context(), q) {
		if err := writeSSE(w, ev); err != nil {
			// Client went away; the pipeline notices via ctx and stops.
			return
		}
		flusher.Flush()
	}
}

// streamPayload is the SSE data frame: the event plus inlined results for
// the event types that carry them.
type streamPayload struct {
	retrievaluc.Event
	Results []fused.Hit `json:"results,omitempty"`
}

func writeSSE(w http.ResponseWriter, ev retrievaluc.Event) error {
	payload := streamPayload{Event: ev}
	if ev.Result != nil {
		payload.Results = hitsOrEmpty(ev.Result.Hits())
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + string(ev.Type) + "\n")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// Degraded still serves queries, so it stays a 200.
	writeJSON(w, http.StatusOK, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (query.Query, bool) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return query.Query{}, false
	}

	var overrides filter.Filters
	if req.Filters != nil {
		overrides = filter.New(req.Filters.Acts, req.Filters.Domains, req.Filters.Section)
	}

	q, err := query.New(req.Query, overrides, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return query.Query{}, false
	}
	return q, true
}

func hitsOrEmpty(hits []fused.Hit) []fused.Hit {
	if hits == nil {
		return []fused.Hit{}
	}
	return hits
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrBadRequest,
		domain.ErrRetrievalUnavailable,
		domain.ErrEmbeddingUnavailable,
		domain.ErrSparseSearchNotSupported,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
