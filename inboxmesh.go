// Package inboxmesh provides a high-level façade over the streaming bridge,
// the time-boxed batch engine and the triage rule engine, enabling rapid
// construction of mailbox-triage agent backends. Most applications interact
// with this package by:
//  1. Creating a Mesh via New() (optionally overriding bridge names & logger)
//  2. Relaying an agent run's execution events to a client (StreamEvents)
//  3. Driving bulk triage incrementally across calls (TriageStep) and
//     surfacing proposed bulk actions (EmitActionProposals)
//
// The façade delegates translation to stream.Bridge and traversal to
// batch.Run while keeping setup and usage ergonomics concise. All defaults
// are safe for local development and testing; production deployments
// typically supply a structured logger and a model-backed classifier.
package inboxmesh

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/hupe1980/inboxmesh/batch"
	"github.com/hupe1980/inboxmesh/classify"
	"github.com/hupe1980/inboxmesh/core"
	"github.com/hupe1980/inboxmesh/internal/util"
	"github.com/hupe1980/inboxmesh/logging"
	"github.com/hupe1980/inboxmesh/stream"
	"github.com/hupe1980/inboxmesh/triage"
)

// Options configures the Mesh instance.
type Options struct {
	// TopLevelNode is the execution-graph node whose completion terminates
	// a stream.
	TopLevelNode string

	// ProgressEventName is the custom-event name recognized as batch
	// progress.
	ProgressEventName string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the bridge and shared services.
type Mesh struct {
	bridge *stream.Bridge
	logger logging.Logger
}

// New creates a new Mesh instance with optional overrides.
func New(optFns ...func(o *Options)) *Mesh {
	opts := Options{
		TopLevelNode:      "agent",
		ProgressEventName: "batch_progress",
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	bridge := stream.NewBridge(func(o *stream.BridgeOptions) {
		o.TopLevelNode = opts.TopLevelNode
		o.ProgressEventName = opts.ProgressEventName
		o.Logger = opts.Logger
	})

	return &Mesh{bridge: bridge, logger: opts.Logger}
}

// NewRelay constructs a relay bound to the mesh's bridge and logger.
func (m *Mesh) NewRelay(w io.Writer) *stream.Relay {
	return stream.NewRelay(w, func(o *stream.RelayOptions) {
		o.Bridge = m.bridge
		o.Logger = m.logger
	})
}

// StreamEvents relays a run's execution events onto w until the channel
// closes or a terminal frame ends the stream. It returns the generated
// stream identifier used in log records.
func (m *Mesh) StreamEvents(ctx context.Context, events <-chan core.ExecutionEvent, w io.Writer) (string, error) {
	streamID := util.NewID()
	m.logger.Debug("stream starting", "stream_id", streamID)

	relay := m.NewRelay(w)
	if err := relay.Run(ctx, events); err != nil {
		m.logger.Error("stream failed", "stream_id", streamID, "error", err)
		return streamID, err
	}

	m.logger.Debug("stream finished", "stream_id", streamID)
	return streamID, nil
}

// EmitActionProposals evaluates the rule engine over a classification and
// emits a single action_buttons frame carrying the proposals plus the
// classification summary. Nothing is emitted when no rule fires.
func (m *Mesh) EmitActionProposals(relay *stream.Relay, c triage.Classification, optFns ...func(o *triage.RuleOptions)) error {
	buttons := triage.ProposeActions(c, optFns...)
	if len(buttons) == 0 {
		return nil
	}
	summary := c.Summary
	return relay.Emit(stream.NewActionButtonsFrame(buttons, &summary))
}

// TriageRecord is one committed triage verdict, the per-item output of a
// TriageStep chain.
type TriageRecord struct {
	UID        uint32          `json:"uid"`
	Category   triage.Category `json:"category"`
	Confidence float64         `json:"confidence"`
}

// TriageStepOptions configures a single TriageStep call.
type TriageStepOptions struct {
	// TimeLimit bounds the call; see batch.Options.
	TimeLimit time.Duration

	// Relay, when set, receives a batch_progress or batch_complete frame
	// (named Tool) after the call.
	Relay *stream.Relay

	// Tool names the bulk operation in progress frames.
	Tool string
}

// TriageStep executes one time-boxed call of a mailbox triage chain:
// every not-yet-processed message is classified individually and committed
// as a TriageRecord. Feed each call the previous call's returned state until
// the result reports completion, then aggregate the chain's records with
// AggregateRecords and surface proposals via EmitActionProposals.
func (m *Mesh) TriageStep(
	ctx context.Context,
	msgs []classify.Message,
	classifier classify.Classifier,
	state *batch.State,
	optFns ...func(o *TriageStepOptions),
) (*batch.Result, error) {
	opts := TriageStepOptions{
		TimeLimit: batch.DefaultTimeLimit,
		Tool:      "triage_inbox",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	res, err := batch.Run(msgs, func(msg classify.Message) batch.Outcome {
		c, cerr := classifier.Classify(ctx, []classify.Message{msg})
		if cerr != nil {
			return batch.Fail(cerr)
		}
		for cat, items := range c.ByCategory {
			for _, item := range items {
				if item.UID == msg.UID {
					return batch.Keep(TriageRecord{UID: msg.UID, Category: cat, Confidence: item.Confidence})
				}
			}
		}
		// The classifier returned no verdict for this uid; commit the item
		// without an output row so the chain still converges.
		return batch.Discard()
	}, func(o *batch.Options[classify.Message]) {
		o.TimeLimit = opts.TimeLimit
		o.State = state
		o.ID = func(msg classify.Message) string { return strconv.FormatUint(uint64(msg.UID), 10) }
		o.Logger = m.logger
	})
	if err != nil {
		return res, err
	}

	m.logger.Debug("triage step finished", "processed", len(res.State.ProcessedIDs), "total", res.TotalAvailable, "has_more", res.HasMore())

	if opts.Relay != nil {
		var frame stream.Frame
		if res.HasMore() {
			frame = stream.BatchProgressFromResult(opts.Tool, res)
		} else {
			frame = stream.BatchCompleteFromResult(opts.Tool, res)
		}
		if err := opts.Relay.Emit(frame); err != nil {
			return res, err
		}
	}

	return res, nil
}

// AggregateRecords folds a chain's accumulated TriageRecords into a
// Classification suitable for the rule engine. The summary counters use the
// rule engine's default high-confidence gate.
func AggregateRecords(records []TriageRecord) triage.Classification {
	c := triage.Classification{ByCategory: make(map[triage.Category][]triage.Item)}
	for _, r := range records {
		c.ByCategory[r.Category] = append(c.ByCategory[r.Category], triage.Item{UID: r.UID, Confidence: r.Confidence})
		c.Summary.TotalProcessed++
		if r.Confidence >= 0.90 {
			c.Summary.HighConfidence++
		} else {
			c.Summary.NeedsReview++
		}
	}
	return c
}
