package stream

import (
	"context"
	"errors"
	"net/http"

	"github.com/hupe1980/inboxmesh/core"
	"github.com/hupe1980/inboxmesh/logging"
)

// EventSource produces the execution-event stream for one request. The
// channel must be closed when the run ends; the context is cancelled when
// the client disconnects.
type EventSource func(ctx context.Context) (<-chan core.ExecutionEvent, error)

// HandlerOptions configures SSEHandler.
type HandlerOptions struct {
	Bridge *Bridge
	Logger logging.Logger
}

// SSEHandler serves an EventSource over text/event-stream. Failures surface
// as a single error frame, after which the stream ends.
func SSEHandler(source EventSource, optFns ...func(o *HandlerOptions)) http.Handler {
	opts := HandlerOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		relay := NewRelay(w, func(o *RelayOptions) {
			o.Bridge = opts.Bridge
			o.Logger = opts.Logger
		})

		events, err := source(req.Context())
		if err != nil {
			opts.Logger.Error("event source failed", "error", err)
			_ = relay.Fail(err.Error())
			return
		}

		if err := relay.Run(req.Context(), events); err != nil && !errors.Is(err, context.Canceled) {
			opts.Logger.Error("relay failed", "error", err)
			_ = relay.Fail(err.Error())
		}
	})
}
