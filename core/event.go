package core

// ExecutionEvent represents a single occurrence inside an agent-executor run
// as seen by the streaming layer. Concrete event types implement the
// unexported isExecutionEvent marker enabling a closed set, so consumers can
// switch exhaustively instead of probing payload fields.
type ExecutionEvent interface{ isExecutionEvent() }

// TokenEvent is an incremental chunk of model-generated text.
type TokenEvent struct {
	Text string // May be empty; empty chunks carry no information downstream
}

// isExecutionEvent implements the ExecutionEvent interface for TokenEvent.
func (TokenEvent) isExecutionEvent() {}

// ToolStartEvent marks the beginning of a tool invocation.
type ToolStartEvent struct {
	Tool string // Invoked tool name; may be empty when the source omits it
}

// isExecutionEvent implements the ExecutionEvent interface for ToolStartEvent.
func (ToolStartEvent) isExecutionEvent() {}

// ToolEndEvent marks the completion of a tool invocation together with its
// raw output. Output is opaque; the streaming layer stringifies and bounds it.
type ToolEndEvent struct {
	Tool   string
	Output any
}

// isExecutionEvent implements the ExecutionEvent interface for ToolEndEvent.
func (ToolEndEvent) isExecutionEvent() {}

// CustomEvent is a named side-channel event dispatched by application code
// running inside the executor (e.g. batch progress reports). Payload keys are
// defined by the emitting tool.
type CustomEvent struct {
	Name    string
	Payload map[string]any
}

// isExecutionEvent implements the ExecutionEvent interface for CustomEvent.
func (CustomEvent) isExecutionEvent() {}

// NodeDoneEvent signals that a named execution-graph node finished. Every
// nested sub-graph emits one on completion; only the event naming the
// top-level node terminates a run.
type NodeDoneEvent struct {
	Node string
}

// isExecutionEvent implements the ExecutionEvent interface for NodeDoneEvent.
func (NodeDoneEvent) isExecutionEvent() {}

// UnknownEvent captures anything the dispatch table could not place. It is
// retained (rather than discarded at the classification boundary) so relays
// can count or debug-log unrecognized traffic before dropping it.
type UnknownEvent struct {
	Kind    string
	Payload map[string]any
}

// isExecutionEvent implements the ExecutionEvent interface for UnknownEvent.
func (UnknownEvent) isExecutionEvent() {}

// RawEvent is the duck-typed shape events arrive in from the agent executor:
// a kind discriminator, the name of the emitting node or sub-event, and an
// opaque payload keyed by event kind.
type RawEvent struct {
	Kind string         `json:"event"`
	Name string         `json:"name,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// DispatchTable maps source-defined kind strings onto the closed
// ExecutionEvent set. It is passed explicitly wherever classification
// happens; there is no package-level default state.
type DispatchTable struct {
	TokenKind     string
	ToolStartKind string
	ToolEndKind   string
	CustomKind    string
	NodeDoneKind  string
}

// DefaultDispatchTable returns the kind names emitted by the stock executor.
func DefaultDispatchTable() DispatchTable {
	return DispatchTable{
		TokenKind:     "model_stream",
		ToolStartKind: "tool_start",
		ToolEndKind:   "tool_end",
		CustomKind:    "custom",
		NodeDoneKind:  "node_end",
	}
}

// Classify converts a raw executor event into its typed variant. All payload
// field probing is confined here; unrecognized kinds become UnknownEvent so
// the caller decides whether to drop, count or log them.
func Classify(raw RawEvent, table DispatchTable) ExecutionEvent {
	switch raw.Kind {
	case table.TokenKind:
		return TokenEvent{Text: stringField(raw.Data, "text")}
	case table.ToolStartKind:
		return ToolStartEvent{Tool: raw.Name}
	case table.ToolEndKind:
		var output any
		if raw.Data != nil {
			output = raw.Data["output"]
		}
		return ToolEndEvent{Tool: raw.Name, Output: output}
	case table.CustomKind:
		return CustomEvent{Name: raw.Name, Payload: raw.Data}
	case table.NodeDoneKind:
		return NodeDoneEvent{Node: raw.Name}
	default:
		return UnknownEvent{Kind: raw.Kind, Payload: raw.Data}
	}
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	s, _ := data[key].(string)
	return s
}
