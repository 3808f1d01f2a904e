package stream

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/hupe1980/inboxmesh/core"
	"github.com/hupe1980/inboxmesh/logging"
)

// ErrStreamClosed is returned by Emit once a terminal frame (done or error)
// has been written. No frames are defined after either.
var ErrStreamClosed = errors.New("stream: closed by terminal frame")

// RelayOptions configures a Relay.
type RelayOptions struct {
	// Bridge performs event-to-frame translation. Nil gets a default bridge.
	Bridge *Bridge
	// Logger receives debug records for emitted frames.
	Logger logging.Logger
}

// Relay pumps execution events through a Bridge onto a writer, one frame at a
// time in arrival order. It enforces the stream-level invariants the Bridge
// cannot see: at most one done frame per stream and nothing after an error
// frame. A Relay serves a single stream and is not safe for concurrent use.
type Relay struct {
	bridge  *Bridge
	w       io.Writer
	flusher http.Flusher
	logger  logging.Logger
	closed  bool
}

// NewRelay constructs a Relay writing to w. If w implements http.Flusher
// every frame is flushed immediately so clients observe frames as they occur.
func NewRelay(w io.Writer, optFns ...func(o *RelayOptions)) *Relay {
	opts := RelayOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Bridge == nil {
		opts.Bridge = NewBridge()
	}

	flusher, _ := w.(http.Flusher)

	return &Relay{bridge: opts.Bridge, w: w, flusher: flusher, logger: opts.Logger}
}

// Emit writes a single frame, applying terminal-frame bookkeeping. Callers
// use it directly for frames the bridge cannot derive from events (interrupt,
// action_buttons, error); those share the framing contract of bridged frames.
func (r *Relay) Emit(f Frame) error {
	if r.closed {
		return ErrStreamClosed
	}

	if err := Encode(r.w, f); err != nil {
		return err
	}
	if r.flusher != nil {
		r.flusher.Flush()
	}

	switch f.(type) {
	case DoneFrame, ErrorFrame:
		r.closed = true
	}
	return nil
}

// Run consumes events until the channel closes, the context is cancelled or
// a terminal frame ends the stream. Each event is fully translated and its
// frame written before the next event is taken; there is no buffering or
// reordering. Cancellation simply stops consumption.
func (r *Relay) Run(ctx context.Context, events <-chan core.ExecutionEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			frame, emit := r.bridge.Translate(ev)
			if !emit {
				continue
			}
			if err := r.Emit(frame); err != nil {
				if errors.Is(err, ErrStreamClosed) {
					// Terminal frame already written; remaining events have
					// nowhere to go.
					return nil
				}
				return err
			}
			r.logger.Debug("relay emitted frame", "frame", frame)
		}
	}
}

// Fail writes a single error frame and closes the stream. Safe to call on an
// already-closed relay, where it reports ErrStreamClosed.
func (r *Relay) Fail(message string) error {
	return r.Emit(NewErrorFrame(message))
}
