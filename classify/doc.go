// Package classify defines the Classifier abstraction that partitions
// mailbox messages into triage categories, shared prompt/parsing helpers for
// model-backed implementations, and a deterministic Mock for tests and
// examples. Provider adapters live in the anthropic and openai subpackages.
package classify
