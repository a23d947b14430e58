package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	domguard "github.com/vakil-cloud/lexsearch/internal/domain/guardrail"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/filter"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/fused"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/query"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"
)

// Outcome is the result of one retrieval call: either a fused ranking or a
// guardrail refusal. A refusal is a normal outcome, not an error.
type Outcome struct {
	result  fused.Result
	refused bool
	reason  domguard.Reason
}

// Result returns the fused ranking. Zero-valued when refused.
func (o Outcome) Result() fused.Result { return o.result }

// Refused reports whether the guardrail short-circuited retrieval.
func (o Outcome) Refused() bool { return o.refused }

// Reason returns the refusal reason code; empty unless refused.
func (o Outcome) Reason() domguard.Reason { return o.reason }

// Service is the retrieval orchestrator: guardrail gate, cache, filter
// extraction, parallel dispatch, and rank fusion composed into one call.
type Service struct {
	gate       SafetyGate
	cache      ResultCache
	extractor  FilterExtractor
	dispatcher *Dispatcher
	rrfK       int
	setVersion string
	group      singleflight.Group
}

// New creates the retrieval orchestrator.
func New(
	gate SafetyGate,
	cache ResultCache,
	extractor FilterExtractor,
	dispatcher *Dispatcher,
	rrfK int,
) *Service {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}
	return &Service{
		gate:       gate,
		cache:      cache,
		extractor:  extractor,
		dispatcher: dispatcher,
		rrfK:       rrfK,
		setVersion: strategy.SetVersion(dispatcher.EnabledStrategies()),
	}
}

// Retrieve runs the full pipeline synchronously: guardrail, cache lookup,
// and on miss one deduplicated fill (filter extraction, parallel dispatch,
// RRF fusion, cache store).
//
// Concurrent callers sharing a fingerprint while a fill is in flight wait
// for that fill's result instead of fanning out again; the per-fingerprint
// singleflight group is a correctness requirement under sustained identical
// load, not an optimization.
func (s *Service) Retrieve(ctx context.Context, q query.Query) (Outcome, error) {
	if d := s.gate.Check(q.Raw()); !d.Allowed() {
		return Outcome{refused: true, reason: d.Reason()}, nil
	}

	fp := s.fingerprint(q)

	if res, ok := s.cache.Get(fp); ok {
		return Outcome{result: res}, nil
	}

	// A caller that is already gone must not start a fill.
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	// The fill outcome is shared by every waiter on the flight, so it runs
	// detached from the first caller's cancellation: a caller that walks
	// away mid-fill must not fail the joiners. Per-leg timeouts still bound
	// the detached work.
	fillCtx := context.WithoutCancel(ctx)

	v, err, _ := s.group.Do(fp, func() (any, error) {
		// Another waiter may have filled the entry between our lookup and
		// acquiring the flight.
		if res, ok := s.cache.Peek(fp); ok {
			return res, nil
		}
		res, err := s.fill(fillCtx, q, nil)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{result: v.(fused.Result)}, nil
}

// RetrieveStream runs the pipeline and reports partial progress as a finite
// event sequence. The returned channel is closed after the terminal event
// (refused, done, or failed). The caller cancels by cancelling ctx; a
// cancelled request stops emitting and performs no cache write, though
// already-dispatched legs are left to finish on their own timeouts.
//
// Streaming fills bypass the singleflight group so leg events stay visible;
// a concurrent duplicate overwrites the cache with the same value, which
// the cache contract permits.
func (s *Service) RetrieveStream(ctx context.Context, q query.Query) <-chan Event {
	events := make(chan Event, 8)

	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if d := s.gate.Check(q.Raw()); !d.Allowed() {
			emit(Event{Type: EventRefused, Reason: d.Reason()})
			return
		}

		fp := s.fingerprint(q)

		if res, ok := s.cache.Get(fp); ok {
			if emit(Event{Type: EventCacheHit, Result: &res}) {
				emit(Event{Type: EventDone, Result: &res})
			}
			return
		}

		observe := func(r LegReport) {
			emit(Event{
				Type:      EventLegCompleted,
				Strategy:  r.Strategy,
				LegStatus: r.Status,
				Hits:      r.Hits,
			})
		}

		res, err := s.fill(ctx, q, observe)
		if err != nil {
			emit(Event{Type: EventFailed, Err: err.Error()})
			return
		}

		if !emit(Event{Type: EventFused, Result: &res}) {
			return
		}
		if ctx.Err() == nil {
			emit(Event{Type: EventCached})
		}
		emit(Event{Type: EventDone, Result: &res})
	}()

	return events
}

// fill is the cache-miss path: extract filters, dispatch legs, fuse, store.
func (s *Service) fill(
	ctx context.Context, q query.Query, observe func(LegReport),
) (fused.Result, error) {
	filters := effectiveFilters(q, s.extractor)

	subs, err := s.dispatcher.Dispatch(ctx, q.Normalized(), filters, q.TopK(), observe)
	if err != nil {
		return fused.Result{}, err
	}

	res := fuseRRF(subs, s.rrfK, q.TopK())

	// A caller that walked away must not publish a result on its behalf.
	if ctx.Err() == nil {
		s.cache.Put(s.fingerprint(q), res)
	}

	return res, nil
}

// effectiveFilters resolves the filters for a query: explicit overrides win
// facet by facet over filters inferred from the query text.
func effectiveFilters(q query.Query, extractor FilterExtractor) filter.Filters {
	inferred := extractor.Extract(q.Normalized())
	return q.Overrides().Merge(inferred)
}

// fingerprint derives the stable cache key for a query. Inferred filters
// are a pure function of the normalized text, so hashing the text, the
// explicit overrides, topK, and the strategy-set version identifies the
// fused result exactly while letting the cache lookup run before the
// extractor does any work.
func (s *Service) fingerprint(q query.Query) string {
	var b strings.Builder
	b.WriteString(q.Normalized())
	b.WriteByte(0x1f)
	b.WriteString(q.Overrides().Key())
	b.WriteByte(0x1f)
	b.WriteString(strconv.Itoa(q.TopK()))
	b.WriteByte(0x1f)
	b.WriteString(s.setVersion)

	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:16])
}
