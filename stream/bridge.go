package stream

import (
	"fmt"

	"github.com/hupe1980/inboxmesh/core"
	"github.com/hupe1980/inboxmesh/internal/util"
	"github.com/hupe1980/inboxmesh/logging"
)

// MaxToolOutputLen is the default bound on stringified tool output carried in
// a tool_end frame.
const MaxToolOutputLen = 500

// unknownTool is the tool-name fallback when the source omits the name.
const unknownTool = "unknown"

// BridgeOptions configures event-to-frame translation.
type BridgeOptions struct {
	// TopLevelNode is the execution-graph node whose completion terminates
	// the stream. Completion events from any other node emit nothing.
	TopLevelNode string

	// ProgressEventName is the custom-event name recognized as a batch
	// progress report. Other custom events are dropped.
	ProgressEventName string

	// MaxToolOutputLen bounds stringified tool output; non-positive disables
	// the bound.
	MaxToolOutputLen int

	// Logger receives debug records for dropped events.
	Logger logging.Logger
}

// Bridge classifies upstream execution events and emits zero or one SSE frame
// per event, preserving arrival order. It is a relay, not a 1:1 transform:
// unrecognized or information-free events are filtered silently.
type Bridge struct {
	opts BridgeOptions
}

// NewBridge constructs a Bridge with optional overrides.
func NewBridge(optFns ...func(o *BridgeOptions)) *Bridge {
	opts := BridgeOptions{
		TopLevelNode:      "agent",
		ProgressEventName: "batch_progress",
		MaxToolOutputLen:  MaxToolOutputLen,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bridge{opts: opts}
}

// Translate maps one execution event onto its frame. The second return value
// reports whether a frame should be emitted; a false means the event carries
// nothing for the wire and is dropped without error.
func (b *Bridge) Translate(ev core.ExecutionEvent) (Frame, bool) {
	switch e := ev.(type) {
	case core.TokenEvent:
		// Empty chunks are suppressed; only incremental text is forwarded.
		if e.Text == "" {
			return nil, false
		}
		return NewTokenFrame(e.Text), true

	case core.ToolStartEvent:
		return NewToolStartFrame(toolName(e.Tool)), true

	case core.ToolEndEvent:
		output := util.Truncate(stringify(e.Output), b.opts.MaxToolOutputLen)
		return NewToolEndFrame(toolName(e.Tool), output), true

	case core.CustomEvent:
		if e.Name != b.opts.ProgressEventName {
			b.opts.Logger.Debug("bridge dropped custom event", "name", e.Name)
			return nil, false
		}
		return progressFromPayload(e.Payload), true

	case core.NodeDoneEvent:
		// Nested sub-graphs also emit completion events; only the designated
		// top-level node may terminate the stream.
		if e.Node != b.opts.TopLevelNode {
			return nil, false
		}
		return NewDoneFrame(), true

	case core.UnknownEvent:
		b.opts.Logger.Debug("bridge dropped unknown event", "kind", e.Kind)
		return nil, false

	default:
		return nil, false
	}
}

func toolName(name string) string {
	if name == "" {
		return unknownTool
	}
	return name
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// progressFromPayload flattens a batch progress payload into frame fields
// rather than nesting it. Payload values may arrive as float64 after a JSON
// round trip, so numbers are coerced.
func progressFromPayload(payload map[string]any) BatchProgressFrame {
	tool := unknownTool
	if s, ok := payload["tool"].(string); ok && s != "" {
		tool = s
	}
	hasMore, _ := payload["has_more"].(bool)
	return NewBatchProgressFrame(
		tool,
		intField(payload, "processed"),
		intField(payload, "total_estimate"),
		intField(payload, "items_found"),
		hasMore,
	)
}

func intField(payload map[string]any, key string) int {
	switch n := payload[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
