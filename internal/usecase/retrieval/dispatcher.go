package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vakil-cloud/lexsearch/internal/domain"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/filter"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/subresult"
	"github.com/vakil-cloud/lexsearch/internal/logger"
	"github.com/vakil-cloud/lexsearch/internal/metrics"
)

// DispatcherConfig holds dispatcher tunables.
type DispatcherConfig struct {
	// OverfetchFactor scales each leg's request size relative to topK:
	// fusion may reorder, so legs fetch more candidates than requested.
	OverfetchFactor int
	// MaxFetchK is the index-level cap on the over-fetched request size.
	MaxFetchK int
	// LegTimeout bounds each leg independently.
	LegTimeout time.Duration
	// Enabled strategies. A disabled strategy is never dispatched.
	Lexical bool
	Dense   bool
	Sparse  bool
}

// LegStatus describes how a dispatched leg ended.
type LegStatus string

// Leg completion statuses.
const (
	LegSucceeded LegStatus = "success"
	LegFailed    LegStatus = "error"
	LegTimedOut  LegStatus = "timeout"
	LegSkipped   LegStatus = "skipped"
)

// LegReport is the per-leg outcome passed to the optional dispatch observer.
type LegReport struct {
	Strategy strategy.Strategy
	Status   LegStatus
	Hits     int
	Elapsed  time.Duration
}

// Dispatcher fans a query out to the enabled retrieval strategies in
// parallel and collects the survivors. A leg that errors or times out is
// dropped with a warning, not propagated, as long as one leg succeeds.
type Dispatcher struct {
	store RecordStore
	embed Embedder
	cfg   DispatcherConfig
}

// NewDispatcher creates a parallel retrieval dispatcher. embed may be nil
// when the dense leg is disabled.
func NewDispatcher(store RecordStore, embed Embedder, cfg DispatcherConfig) *Dispatcher {
	if cfg.OverfetchFactor <= 0 {
		cfg.OverfetchFactor = 2
	}
	if cfg.MaxFetchK <= 0 {
		cfg.MaxFetchK = 200
	}
	if cfg.LegTimeout <= 0 {
		cfg.LegTimeout = 1500 * time.Millisecond
	}
	return &Dispatcher{store: store, embed: embed, cfg: cfg}
}

// EnabledStrategies returns the strategies this dispatcher may issue, in
// canonical order. Feeds the cache fingerprint's strategy-set version.
func (d *Dispatcher) EnabledStrategies() []strategy.Strategy {
	var out []strategy.Strategy
	if d.cfg.Lexical {
		out = append(out, strategy.Lexical)
	}
	if d.cfg.Dense {
		out = append(out, strategy.Dense)
	}
	if d.cfg.Sparse {
		out = append(out, strategy.Sparse)
	}
	return out
}

// Dispatch runs the enabled legs concurrently and returns one SubResult per
// surviving leg. observe, when non-nil, receives a LegReport as each leg
// settles (used by the streaming orchestrator path). Returns
// domain.ErrRetrievalUnavailable only when every dispatched leg failed.
func (d *Dispatcher) Dispatch(
	ctx context.Context, queryText string, f filter.Filters, topK int,
	observe func(LegReport),
) ([]subresult.SubResult, error) {
	fetchK := min(topK*d.cfg.OverfetchFactor, d.cfg.MaxFetchK)
	if fetchK < topK {
		fetchK = topK
	}

	legs := d.buildLegs(ctx, queryText, f, fetchK)
	if len(legs) == 0 {
		return nil, fmt.Errorf("no retrieval strategies enabled: %w", domain.ErrRetrievalUnavailable)
	}

	type outcome struct {
		report LegReport
		sub    subresult.SubResult
		err    error
	}

	outcomes := make([]outcome, len(legs))
	var wg sync.WaitGroup
	for i, leg := range legs {
		wg.Add(1)
		go func(idx int, run legFunc) {
			defer wg.Done()

			legCtx, cancel := context.WithTimeout(ctx, d.cfg.LegTimeout)
			defer cancel()

			start := time.Now()
			sub, err := run(legCtx)
			elapsed := time.Since(start)

			report := LegReport{Strategy: sub.Strategy(), Elapsed: elapsed}
			switch {
			case err == nil:
				report.Status = LegSucceeded
				report.Hits = sub.Len()
			case errors.Is(err, domain.ErrEmbeddingUnavailable):
				report.Status = LegSkipped
			case errors.Is(err, context.DeadlineExceeded):
				report.Status = LegTimedOut
				err = fmt.Errorf("%w: %w", domain.ErrLegTimeout, err)
			default:
				report.Status = LegFailed
			}
			outcomes[idx] = outcome{report: report, sub: sub, err: err}
		}(i, leg)
	}
	wg.Wait()

	log := logger.FromContext(ctx)
	dispatched := 0
	subs := make([]subresult.SubResult, 0, len(legs))
	for _, o := range outcomes {
		metrics.LegRequestsTotal.WithLabelValues(string(o.report.Strategy), string(o.report.Status)).Inc()
		if o.report.Status != LegSkipped {
			dispatched++
			metrics.LegDuration.WithLabelValues(string(o.report.Strategy)).Observe(o.report.Elapsed.Seconds())
		}
		if observe != nil {
			observe(o.report)
		}
		if o.err != nil {
			log.Warn("Retrieval leg dropped",
				zap.String("strategy", string(o.report.Strategy)),
				zap.String("status", string(o.report.Status)),
				zap.Duration("elapsed", o.report.Elapsed),
				zap.Error(o.err),
			)
			continue
		}
		subs = append(subs, o.sub)
	}

	if len(subs) == 0 {
		return nil, fmt.Errorf("all %d retrieval legs failed: %w", dispatched, domain.ErrRetrievalUnavailable)
	}
	if len(subs) < dispatched {
		metrics.PartialDegradationTotal.Inc()
		log.Warn("Partial retrieval degradation",
			zap.Int("dispatched", dispatched),
			zap.Int("survived", len(subs)),
		)
	}

	return subs, nil
}

type legFunc func(ctx context.Context) (subresult.SubResult, error)

// buildLegs assembles the closures for the enabled strategies. The sparse
// leg is included only when the record store reports support; the dense leg
// resolves its embedding inside the leg so provider latency counts against
// the leg timeout, not the caller.
func (d *Dispatcher) buildLegs(
	ctx context.Context, queryText string, f filter.Filters, fetchK int,
) []legFunc {
	var legs []legFunc

	if d.cfg.Lexical {
		legs = append(legs, func(legCtx context.Context) (subresult.SubResult, error) {
			sub, err := d.store.SearchLexical(legCtx, queryText, f, fetchK)
			if err != nil {
				return subresult.New(strategy.Lexical, nil), err
			}
			return sub, nil
		})
	}

	if d.cfg.Dense && d.embed != nil {
		legs = append(legs, func(legCtx context.Context) (subresult.SubResult, error) {
			emb, err := d.embed.Embed(legCtx, queryText)
			if err != nil {
				return subresult.New(strategy.Dense, nil), fmt.Errorf("embed query: %w", err)
			}
			sub, err := d.store.SearchDense(legCtx, emb.Embedding, f, fetchK)
			if err != nil {
				return subresult.New(strategy.Dense, nil), err
			}
			return sub, nil
		})
	}

	if d.cfg.Sparse && d.store.SupportsSparse(ctx) {
		legs = append(legs, func(legCtx context.Context) (subresult.SubResult, error) {
			sub, err := d.store.SearchSparse(legCtx, queryText, f, fetchK)
			if err != nil {
				return subresult.New(strategy.Sparse, nil), err
			}
			return sub, nil
		})
	}

	return legs
}
