// Package batch implements a time-boxed, resumable processing primitive for
// ordered collections. A single Run call starts as many items as fit inside
// a wall-clock budget and returns a continuation checkpoint; the caller
// round-trips that checkpoint into the next call until the chain reports
// completion. The engine holds no state of its own, making each call short,
// pure and independently testable.
//
// The typical consumer is a bulk mailbox operation (triage, relabel, archive)
// driven incrementally across multiple agent turns so no single call exceeds
// its latency budget.
package batch
