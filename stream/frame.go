package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hupe1980/inboxmesh/batch"
	"github.com/hupe1980/inboxmesh/triage"
)

// Frame type discriminators carried in every payload.
const (
	TypeToken         = "token"
	TypeToolStart     = "tool_start"
	TypeToolEnd       = "tool_end"
	TypeBatchProgress = "batch_progress"
	TypeBatchComplete = "batch_complete"
	TypeActionButtons = "action_buttons"
	TypeInterrupt     = "interrupt"
	TypeError         = "error"
	TypeDone          = "done"
)

// Frame is one Server-Sent-Events wire unit. Concrete frame types implement
// the unexported isFrame marker enabling a closed set; construct them through
// the New*Frame helpers so the type discriminator is always populated.
type Frame interface{ isFrame() }

// TokenFrame carries an incremental chunk of assistant text.
type TokenFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// isFrame implements the Frame interface for TokenFrame.
func (TokenFrame) isFrame() {}

// NewTokenFrame builds a token frame.
func NewTokenFrame(content string) TokenFrame {
	return TokenFrame{Type: TypeToken, Content: content}
}

// ToolStartFrame announces the start of a tool invocation.
type ToolStartFrame struct {
	Type string `json:"type"`
	Tool string `json:"tool"`
}

// isFrame implements the Frame interface for ToolStartFrame.
func (ToolStartFrame) isFrame() {}

// NewToolStartFrame builds a tool_start frame.
func NewToolStartFrame(tool string) ToolStartFrame {
	return ToolStartFrame{Type: TypeToolStart, Tool: tool}
}

// ToolEndFrame announces the completion of a tool invocation. Output is
// already stringified and bounded by the bridge.
type ToolEndFrame struct {
	Type   string `json:"type"`
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// isFrame implements the Frame interface for ToolEndFrame.
func (ToolEndFrame) isFrame() {}

// NewToolEndFrame builds a tool_end frame.
func NewToolEndFrame(tool, output string) ToolEndFrame {
	return ToolEndFrame{Type: TypeToolEnd, Tool: tool, Output: output}
}

// BatchProgressFrame reports mid-chain progress of a bulk operation.
type BatchProgressFrame struct {
	Type          string `json:"type"`
	Tool          string `json:"tool"`
	Processed     int    `json:"processed"`
	TotalEstimate int    `json:"total_estimate"`
	ItemsFound    int    `json:"items_found"`
	HasMore       bool   `json:"has_more"`
}

// isFrame implements the Frame interface for BatchProgressFrame.
func (BatchProgressFrame) isFrame() {}

// NewBatchProgressFrame builds a batch_progress frame from explicit counters.
func NewBatchProgressFrame(tool string, processed, totalEstimate, itemsFound int, hasMore bool) BatchProgressFrame {
	return BatchProgressFrame{
		Type:          TypeBatchProgress,
		Tool:          tool,
		Processed:     processed,
		TotalEstimate: totalEstimate,
		ItemsFound:    itemsFound,
		HasMore:       hasMore,
	}
}

// BatchProgressFromResult derives a progress frame from a batch call result.
func BatchProgressFromResult(tool string, res *batch.Result) BatchProgressFrame {
	return NewBatchProgressFrame(tool, len(res.State.ProcessedIDs), res.TotalAvailable, len(res.Items), res.HasMore())
}

// BatchCompleteFrame reports terminal completion of a bulk operation.
type BatchCompleteFrame struct {
	Type       string `json:"type"`
	Tool       string `json:"tool"`
	TotalItems int    `json:"total_items"`
	Processed  int    `json:"processed"`
	Items      []any  `json:"items"`
}

// isFrame implements the Frame interface for BatchCompleteFrame.
func (BatchCompleteFrame) isFrame() {}

// BatchCompleteFromResult derives a completion frame from a batch call result.
func BatchCompleteFromResult(tool string, res *batch.Result) BatchCompleteFrame {
	items := res.Items
	if items == nil {
		items = []any{}
	}
	return BatchCompleteFrame{
		Type:       TypeBatchComplete,
		Tool:       tool,
		TotalItems: res.TotalAvailable,
		Processed:  len(res.State.ProcessedIDs),
		Items:      items,
	}
}

// ActionButtonsFrame surfaces advisory bulk-action proposals. Context is the
// classification summary forwarded unchanged when available.
type ActionButtonsFrame struct {
	Type    string                `json:"type"`
	Buttons []triage.ActionButton `json:"buttons"`
	Context *triage.Summary       `json:"context,omitempty"`
}

// isFrame implements the Frame interface for ActionButtonsFrame.
func (ActionButtonsFrame) isFrame() {}

// NewActionButtonsFrame builds an action_buttons frame.
func NewActionButtonsFrame(buttons []triage.ActionButton, context *triage.Summary) ActionButtonsFrame {
	return ActionButtonsFrame{Type: TypeActionButtons, Buttons: buttons, Context: context}
}

// InterruptFrame pauses the stream for human-in-the-loop input. It is built
// directly by callers at executor control points the bridge cannot see.
type InterruptFrame struct {
	Type string         `json:"type"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// isFrame implements the Frame interface for InterruptFrame.
func (InterruptFrame) isFrame() {}

// NewInterruptFrame builds an interrupt frame.
func NewInterruptFrame(tool string, args map[string]any) InterruptFrame {
	return InterruptFrame{Type: TypeInterrupt, Tool: tool, Args: args}
}

// ErrorFrame surfaces a user-visible failure. No further frames follow it;
// the stream is expected to end.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// isFrame implements the Frame interface for ErrorFrame.
func (ErrorFrame) isFrame() {}

// NewErrorFrame builds an error frame.
func NewErrorFrame(message string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Message: message}
}

// DoneFrame terminates the stream. At most one is emitted per stream, only
// on top-level completion.
type DoneFrame struct {
	Type string `json:"type"`
}

// isFrame implements the Frame interface for DoneFrame.
func (DoneFrame) isFrame() {}

// NewDoneFrame builds a done frame.
func NewDoneFrame() DoneFrame { return DoneFrame{Type: TypeDone} }

// Encode writes one frame in SSE framing: "data: " followed by the frame's
// single-line JSON payload and a blank-line terminator. Serialization of
// frames built through the constructors cannot fail; an error therefore
// indicates a writer problem.
func Encode(w io.Writer, f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("stream: marshal %T frame: %w", f, err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("stream: write frame: %w", err)
	}
	return nil
}
