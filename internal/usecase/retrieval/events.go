package retrieval

import (
	domguard "github.com/vakil-cloud/lexsearch/internal/domain/guardrail"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/fused"
	"github.com/vakil-cloud/lexsearch/internal/domain/search/strategy"
)

// EventType labels one step of the streaming retrieval sequence.
type EventType string

// Event types, in the order they can occur. The sequence is finite: it ends
// with exactly one of refused, done, or failed, after which the channel
// closes. It is not restartable.
const (
	EventRefused      EventType = "refused"
	EventCacheHit     EventType = "cache_hit"
	EventLegCompleted EventType = "leg_completed"
	EventFused        EventType = "fused"
	EventCached       EventType = "cached"
	EventDone         EventType = "done"
	EventFailed       EventType = "failed"
)

// Event is one partial-progress notification from a streaming retrieval.
type Event struct {
	Type EventType `json:"type"`

	// Refusal fields (EventRefused).
	Reason domguard.Reason `json:"reason,omitempty"`

	// Leg fields (EventLegCompleted).
	Strategy  strategy.Strategy `json:"strategy,omitempty"`
	LegStatus LegStatus         `json:"leg_status,omitempty"`
	Hits      int               `json:"hits,omitempty"`

	// Result fields (EventFused, EventCacheHit, EventDone).
	Result *fused.Result `json:"-"`

	// Error detail (EventFailed).
	Err string `json:"error,omitempty"`
}
