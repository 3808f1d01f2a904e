package batch

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests control elapsed wall-clock time deterministically.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRun_SingleCallComplete(t *testing.T) {
	items := []string{"a", "b", "c"}
	var visited []string

	res, err := Run(items, func(item string) Outcome {
		visited = append(visited, item)
		return Keep("ok:" + item)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, visited)
	assert.Equal(t, []any{"ok:a", "ok:b", "ok:c"}, res.Items)
	assert.True(t, res.State.IsComplete)
	assert.Equal(t, 3, res.State.Offset)
	assert.Equal(t, []string{"a", "b", "c"}, res.State.ProcessedIDs)
	assert.Equal(t, "c", res.State.LastID)
	assert.False(t, res.TimeLimitReached)
	assert.Equal(t, 3, res.TotalAvailable)

	resp := res.Response()
	assert.Equal(t, StatusComplete, resp.Status)
	assert.Nil(t, resp.ContinuationState)
	assert.False(t, resp.HasMore)
	assert.Equal(t, 3, resp.ItemsCount)
}

func TestRun_ZeroTimeLimit(t *testing.T) {
	calls := 0
	res, err := Run([]string{"a", "b"}, func(string) Outcome {
		calls++
		return Keep(nil)
	}, func(o *Options[string]) {
		o.TimeLimit = 0
	})
	require.NoError(t, err)

	assert.Zero(t, calls, "processor must not run under a zero budget")
	assert.Empty(t, res.Items)
	assert.True(t, res.TimeLimitReached)
	assert.False(t, res.State.IsComplete)
	assert.Equal(t, 0, res.State.Offset)

	resp := res.Response()
	assert.Equal(t, StatusPartial, resp.Status)
	require.NotNil(t, resp.ContinuationState)
	assert.Equal(t, 0, resp.ContinuationState.Offset)
	assert.True(t, resp.HasMore)
}

// Driving a chain to completion visits every non-skipped identifier exactly
// once and accumulates the union of all per-call outputs.
func TestRun_ResumptionChain(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	visits := map[string]int{}

	proc := func(item string) Outcome {
		visits[item]++
		clock.Advance(time.Second) // each item costs one simulated second
		return Keep(item)
	}

	var state *State
	var collected []any
	callCount := 0
	for {
		callCount++
		res, err := Run(items, proc, func(o *Options[string]) {
			o.TimeLimit = 2500 * time.Millisecond
			o.State = state
			o.Clock = clock.Now
		})
		require.NoError(t, err)
		collected = append(collected, res.Items...)
		if res.State.IsComplete {
			break
		}
		assert.True(t, res.TimeLimitReached)
		s := res.State
		state = &s
		require.Less(t, callCount, 10, "chain did not converge")
	}

	// 3 items per call under a 2.5s budget with 1s items.
	assert.Equal(t, 3, callCount)
	assert.Equal(t, []any{"a", "b", "c", "d", "e", "f", "g"}, collected)
	for id, n := range visits {
		assert.Equalf(t, 1, n, "item %s visited %d times", id, n)
	}
	assert.Len(t, visits, len(items))
}

func TestRun_OffsetAtEndOfCollection(t *testing.T) {
	prev := State{Offset: 2, ProcessedIDs: []string{"a", "b"}, LastID: "b"}
	calls := 0
	res, err := Run([]string{"a", "b"}, func(string) Outcome {
		calls++
		return Keep(nil)
	}, func(o *Options[string]) {
		o.State = &prev
	})
	require.NoError(t, err)

	assert.Zero(t, calls)
	assert.Empty(t, res.Items)
	assert.True(t, res.State.IsComplete)
	assert.Equal(t, StatusComplete, res.Status())
}

func TestRun_CompleteStateReplay(t *testing.T) {
	prev := State{Offset: 1, ProcessedIDs: []string{"a"}, LastID: "a", IsComplete: true}
	res, err := Run([]string{"a", "b"}, func(string) Outcome {
		t.Fatal("processor must not run on a complete state")
		return Discard()
	}, func(o *Options[string]) {
		o.State = &prev
	})
	require.NoError(t, err)
	assert.True(t, res.State.IsComplete)
	assert.Empty(t, res.Items)
}

func TestRun_SkipIDsConsumeProgressWithoutProcessing(t *testing.T) {
	items := []string{"a", "b", "c"}
	var visited []string

	res, err := Run(items, func(item string) Outcome {
		visited = append(visited, item)
		return Keep(item)
	}, func(o *Options[string]) {
		o.SkipIDs = []string{"b"}
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, visited)
	assert.Equal(t, []any{"a", "c"}, res.Items)
	assert.True(t, res.State.IsComplete)
	assert.Equal(t, 3, res.State.Offset, "skipped item still counts as consumed progress")
	assert.Equal(t, []string{"a", "c"}, res.State.ProcessedIDs)
}

func TestRun_ItemsBeforeOffsetNeverReexamined(t *testing.T) {
	// Offset is the primary resumption pointer: items below it stay untouched
	// even when absent from the skip set.
	prev := State{Offset: 2}
	var visited []string
	res, err := Run([]string{"a", "b", "c"}, func(item string) Outcome {
		visited = append(visited, item)
		return Keep(item)
	}, func(o *Options[string]) {
		o.State = &prev
		o.SkipIDs = []string{}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, visited)
	assert.True(t, res.State.IsComplete)
}

func TestRun_DiscardCommitsWithoutOutput(t *testing.T) {
	res, err := Run([]string{"a", "b"}, func(item string) Outcome {
		if item == "a" {
			return Discard()
		}
		return Keep(item)
	})
	require.NoError(t, err)

	assert.Equal(t, []any{"b"}, res.Items)
	assert.Equal(t, []string{"a", "b"}, res.State.ProcessedIDs, "discarded item is still committed")
}

func TestRun_FailurePreservesCheckpoint(t *testing.T) {
	items := []string{"a", "b", "c"}
	boom := errors.New("boom")

	res, err := Run(items, func(item string) Outcome {
		if item == "b" {
			return Fail(boom)
		}
		return Keep(item)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// Checkpoint stops at the last success; the failing item is uncommitted.
	assert.Equal(t, []string{"a"}, res.State.ProcessedIDs)
	assert.Equal(t, 1, res.State.Offset)
	assert.False(t, res.State.IsComplete)

	// Re-invocation with the returned state retries exactly the failing item.
	var visited []string
	retry, err := Run(items, func(item string) Outcome {
		visited = append(visited, item)
		return Keep(item)
	}, func(o *Options[string]) {
		o.State = &res.State
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, visited)
	assert.True(t, retry.State.IsComplete)
}

func TestRun_DoesNotMutateCallerState(t *testing.T) {
	prev := State{Offset: 0, ProcessedIDs: []string{}}
	_, err := Run([]string{"a"}, func(string) Outcome { return Keep(nil) }, func(o *Options[string]) {
		o.State = &prev
	})
	require.NoError(t, err)
	assert.Equal(t, 0, prev.Offset)
	assert.Empty(t, prev.ProcessedIDs)
}

func TestRun_CustomIDExtractor(t *testing.T) {
	type msg struct {
		UID     uint32
		Subject string
	}
	items := []msg{{UID: 7, Subject: "x"}, {UID: 9, Subject: "y"}}

	res, err := Run(items, func(m msg) Outcome {
		return Keep(m.Subject)
	}, func(o *Options[msg]) {
		o.ID = func(m msg) string { return "uid-" + strconv.FormatUint(uint64(m.UID), 10) }
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"uid-7", "uid-9"}, res.State.ProcessedIDs)
}
