package stream

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/inboxmesh/batch"
	"github.com/hupe1980/inboxmesh/core"
	"github.com/hupe1980/inboxmesh/triage"
)

func frames(buf *bytes.Buffer) []string {
	raw := strings.Split(buf.String(), "\n\n")
	var out []string
	for _, f := range raw {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func TestRelay_PreservesOrderAndFilters(t *testing.T) {
	events := make(chan core.ExecutionEvent, 8)
	events <- core.TokenEvent{Text: "Hel"}
	events <- core.TokenEvent{Text: ""} // suppressed
	events <- core.ToolStartEvent{Tool: "triage_inbox"}
	events <- core.UnknownEvent{Kind: "noise"} // dropped
	events <- core.ToolEndEvent{Tool: "triage_inbox", Output: "ok"}
	events <- core.NodeDoneEvent{Node: "classify"} // nested, dropped
	events <- core.NodeDoneEvent{Node: "agent"}
	close(events)

	var buf bytes.Buffer
	relay := NewRelay(&buf)
	require.NoError(t, relay.Run(context.Background(), events))

	got := frames(&buf)
	require.Len(t, got, 4)
	assert.Equal(t, `data: {"type":"token","content":"Hel"}`, got[0])
	assert.Equal(t, `data: {"type":"tool_start","tool":"triage_inbox"}`, got[1])
	assert.Equal(t, `data: {"type":"tool_end","tool":"triage_inbox","output":"ok"}`, got[2])
	assert.Equal(t, `data: {"type":"done"}`, got[3])
}

func TestRelay_AtMostOneDone(t *testing.T) {
	events := make(chan core.ExecutionEvent, 4)
	events <- core.NodeDoneEvent{Node: "agent"}
	events <- core.NodeDoneEvent{Node: "agent"} // stream already terminal
	events <- core.TokenEvent{Text: "late"}
	close(events)

	var buf bytes.Buffer
	relay := NewRelay(&buf)
	require.NoError(t, relay.Run(context.Background(), events))

	assert.Equal(t, []string{`data: {"type":"done"}`}, frames(&buf))
}

func TestRelay_NoFramesAfterError(t *testing.T) {
	var buf bytes.Buffer
	relay := NewRelay(&buf)

	require.NoError(t, relay.Fail("mailbox unavailable"))
	assert.ErrorIs(t, relay.Emit(NewTokenFrame("x")), ErrStreamClosed)
	assert.ErrorIs(t, relay.Fail("again"), ErrStreamClosed)

	assert.Equal(t, []string{`data: {"type":"error","message":"mailbox unavailable"}`}, frames(&buf))
}

func TestRelay_CancellationStopsConsumption(t *testing.T) {
	events := make(chan core.ExecutionEvent) // never written, never closed
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	relay := NewRelay(&buf)
	assert.ErrorIs(t, relay.Run(ctx, events), context.Canceled)
	assert.Empty(t, buf.String())
}

func TestRelay_CallerBuiltFrames(t *testing.T) {
	var buf bytes.Buffer
	relay := NewRelay(&buf)

	buttons := []triage.ActionButton{{
		ID:     triage.ButtonMarkFYIRead,
		Label:  "Mark 2 FYI read",
		Action: "mark_read",
		Args:   triage.ButtonArgs{UIDs: []uint32{7, 8}, MarkRead: true},
		Style:  triage.StyleSecondary,
	}}
	summary := &triage.Summary{HighConfidence: 1, NeedsReview: 1, TotalProcessed: 2}

	require.NoError(t, relay.Emit(NewActionButtonsFrame(buttons, summary)))
	require.NoError(t, relay.Emit(NewInterruptFrame("confirm_archive", map[string]any{"count": 3})))

	got := frames(&buf)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], `"type":"action_buttons"`)
	assert.Contains(t, got[0], `"uids":[7,8]`)
	assert.Contains(t, got[0], `"context":{"high_confidence":1,"needs_review":1,"total_processed":2}`)
	assert.Contains(t, got[1], `"type":"interrupt"`)
	assert.Contains(t, got[1], `"tool":"confirm_archive"`)
}

func TestBatchFrames_FromResult(t *testing.T) {
	partial := &batch.Result{
		Items:            []any{"a", "b"},
		State:            batch.State{Offset: 2, ProcessedIDs: []string{"a", "b"}, LastID: "b"},
		TimeLimitReached: true,
		TotalAvailable:   5,
	}
	progress := BatchProgressFromResult("triage_inbox", partial)
	assert.Equal(t, 2, progress.Processed)
	assert.Equal(t, 5, progress.TotalEstimate)
	assert.Equal(t, 2, progress.ItemsFound)
	assert.True(t, progress.HasMore)

	complete := &batch.Result{
		Items:          []any{"a", "b", "c"},
		State:          batch.State{Offset: 3, ProcessedIDs: []string{"a", "b", "c"}, LastID: "c", IsComplete: true},
		TotalAvailable: 3,
	}
	done := BatchCompleteFromResult("triage_inbox", complete)
	assert.Equal(t, 3, done.TotalItems)
	assert.Equal(t, 3, done.Processed)
	assert.Len(t, done.Items, 3)
}

func TestSSEHandler_ServesEventStream(t *testing.T) {
	source := func(ctx context.Context) (<-chan core.ExecutionEvent, error) {
		events := make(chan core.ExecutionEvent, 2)
		events <- core.TokenEvent{Text: "Hi"}
		events <- core.NodeDoneEvent{Node: "agent"}
		close(events)
		return events, nil
	}

	req := httptest.NewRequest("GET", "/stream", nil)
	rec := httptest.NewRecorder()
	SSEHandler(source).ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "data: {\"type\":\"token\",\"content\":\"Hi\"}\n\n")
	assert.True(t, strings.HasSuffix(body, "data: {\"type\":\"done\"}\n\n"))
}
