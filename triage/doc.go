// Package triage defines the classification data model for mailbox items and
// a small deterministic rule engine that turns categorized results into
// advisory bulk-action proposals (ActionButton values). The engine is a pure
// function of its input: no I/O, no caching, no global state.
package triage
