// Package stream translates agent-execution events into a Server-Sent-Events
// wire protocol. It defines the closed frame vocabulary (token, tool_start,
// tool_end, batch_progress, batch_complete, action_buttons, interrupt, error,
// done), the SSE framing encoder, the Bridge that classifies upstream events
// into frames, and the Relay pump that drives a live event channel onto a
// writer while enforcing stream-level invariants: strict ordering, at most
// one done frame, and nothing after an error frame.
package stream
