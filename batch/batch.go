package batch

import (
	"fmt"
	"time"

	"github.com/hupe1980/inboxmesh/logging"
)

// DefaultTimeLimit bounds how long a single Run call keeps starting new
// items. It is deliberately short: bulk work is expected to span several
// resumed calls rather than one long-latency call.
const DefaultTimeLimit = 5 * time.Second

// Status values reported by Response.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
)

// State is the continuation checkpoint of a resumable traversal over an
// ordered, index-addressable collection. It has no identity of its own: the
// caller receives it from Run, round-trips it verbatim into the next call and
// discards it once IsComplete is true.
//
// Invariants: Offset only increases across a resumption chain; ProcessedIDs
// never shrinks; once IsComplete is set a replayed call performs no work.
type State struct {
	Offset       int      `json:"offset"`
	ProcessedIDs []string `json:"processed_ids"`
	LastID       string   `json:"last_id,omitempty"`
	IsComplete   bool     `json:"is_complete"`
}

// Clone returns a deep copy so Run never mutates caller-owned state.
func (s State) Clone() State {
	c := s
	c.ProcessedIDs = make([]string, len(s.ProcessedIDs))
	copy(c.ProcessedIDs, s.ProcessedIDs)
	return c
}

// Outcome is the typed result of processing a single item. It makes the
// engine's commit contract explicit: Keep and Discard both commit the item
// (at-most-once), Fail aborts the call without committing it (at-least-once).
type Outcome struct {
	value any
	keep  bool
	err   error
}

// Keep commits the item and appends value to the call's output.
func Keep(value any) Outcome { return Outcome{value: value, keep: true} }

// Discard commits the item without producing an output row.
func Discard() Outcome { return Outcome{} }

// Fail aborts the call. The failing item is not committed; re-invoking with
// the returned state retries exactly this item.
func Fail(err error) Outcome { return Outcome{err: err} }

// Processor handles one item and reports what to do with it.
type Processor[T any] func(item T) Outcome

// Options configures a single Run call.
type Options[T any] struct {
	// TimeLimit is the wall-clock budget. It bounds item starts, not total
	// call latency: it is re-checked before each new item, never mid-item.
	TimeLimit time.Duration

	// State is the continuation checkpoint returned by the previous call.
	// Nil means the first call of a chain.
	State *State

	// SkipIDs is a secondary idempotency guard applied to items at or beyond
	// the offset. Nil defaults to the state's own ProcessedIDs.
	SkipIDs []string

	// ID extracts a stable identifier from an item. The default stringifies
	// the item itself (identity for string collections).
	ID func(item T) string

	// Clock supplies the current time; overridable for deterministic tests.
	Clock func() time.Time

	// Logger receives debug-level progress records.
	Logger logging.Logger
}

// Result is the per-call output of Run.
type Result struct {
	// Items holds the non-discarded processor outputs, in traversal order.
	Items []any
	// State is the updated continuation checkpoint.
	State State
	// Elapsed is the wall-clock duration of the call.
	Elapsed time.Duration
	// TimeLimitReached reports whether the call stopped on its budget.
	TimeLimitReached bool
	// TotalAvailable is the full input collection size, for caller-side
	// progress-fraction reporting.
	TotalAvailable int
}

// HasMore reports whether a further resumed call is required.
func (r *Result) HasMore() bool { return !r.State.IsComplete }

// Status returns StatusComplete or StatusPartial.
func (r *Result) Status() string {
	if r.State.IsComplete {
		return StatusComplete
	}
	return StatusPartial
}

// Response is the derived wire shape handed back to the caller of a bulk
// operation. ContinuationState is nil exactly when the chain is complete.
type Response struct {
	Status             string  `json:"status"`
	Items              []any   `json:"items"`
	ItemsCount         int     `json:"items_count"`
	TimeElapsedSeconds float64 `json:"time_elapsed_seconds"`
	TimeLimitReached   bool    `json:"time_limit_reached"`
	ContinuationState  *State  `json:"continuation_state"`
	TotalAvailable     int     `json:"total_available"`
	HasMore            bool    `json:"has_more"`
}

// Response converts the Result into its wire shape.
func (r *Result) Response() Response {
	items := r.Items
	if items == nil {
		items = []any{}
	}
	resp := Response{
		Status:             r.Status(),
		Items:              items,
		ItemsCount:         len(r.Items),
		TimeElapsedSeconds: r.Elapsed.Seconds(),
		TimeLimitReached:   r.TimeLimitReached,
		TotalAvailable:     r.TotalAvailable,
		HasMore:            r.HasMore(),
	}
	if !r.State.IsComplete {
		state := r.State.Clone()
		resp.ContinuationState = &state
	}
	return resp
}

// Run processes items in order under a wall-clock budget, resuming from the
// offset in Options.State. It is purely synchronous and re-entrant: no state
// survives between calls and nothing is shared, so a single logical
// resumption chain is always safe. Concurrent chains over the same external
// resource must be serialized by the caller.
//
// Across an entire chain each identifier reaches the processor at most once.
// A Fail outcome aborts the call with an error; the returned Result preserves
// the checkpoint at the last committed item so re-invocation retries exactly
// the failing item.
func Run[T any](items []T, proc Processor[T], optFns ...func(o *Options[T])) (*Result, error) {
	opts := Options[T]{
		TimeLimit: DefaultTimeLimit,
		ID:        func(item T) string { return fmt.Sprint(item) },
		Clock:     time.Now,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	state := State{}
	if opts.State != nil {
		state = opts.State.Clone()
	}

	result := &Result{State: state, TotalAvailable: len(items)}

	start := opts.Clock()

	// Replayed terminal state: nothing left to do.
	if state.IsComplete {
		result.Elapsed = opts.Clock().Sub(start)
		return result, nil
	}

	skipIDs := opts.SkipIDs
	if skipIDs == nil {
		skipIDs = state.ProcessedIDs
	}
	skip := make(map[string]struct{}, len(skipIDs))
	for _, id := range skipIDs {
		skip[id] = struct{}{}
	}

	opts.Logger.Debug("batch run starting", "offset", state.Offset, "total", len(items), "time_limit", opts.TimeLimit)

	for i := state.Offset; i < len(items); i++ {
		// Budget check happens strictly before touching the item, so the
		// current item stays untouched and becomes the resumption point.
		if opts.Clock().Sub(start) >= opts.TimeLimit {
			result.State.Offset = i
			result.TimeLimitReached = true
			result.Elapsed = opts.Clock().Sub(start)
			opts.Logger.Debug("batch run hit time limit", "offset", i, "processed", len(result.State.ProcessedIDs))
			return result, nil
		}

		id := opts.ID(items[i])

		if _, seen := skip[id]; seen {
			// Already committed in an earlier call: consume the slot without
			// reprocessing and without duplicating output.
			result.State.Offset = i + 1
			continue
		}

		outcome := proc(items[i])
		if outcome.err != nil {
			// Checkpoint stays at the last committed item; the failing item
			// is never added to ProcessedIDs.
			result.State.Offset = i
			result.Elapsed = opts.Clock().Sub(start)
			return result, fmt.Errorf("batch: process item %q at index %d: %w", id, i, outcome.err)
		}

		if outcome.keep {
			result.Items = append(result.Items, outcome.value)
		}
		result.State.ProcessedIDs = append(result.State.ProcessedIDs, id)
		result.State.LastID = id
		result.State.Offset = i + 1
	}

	result.State.IsComplete = true
	result.Elapsed = opts.Clock().Sub(start)
	opts.Logger.Debug("batch run complete", "processed", len(result.State.ProcessedIDs), "items", len(result.Items))
	return result, nil
}
