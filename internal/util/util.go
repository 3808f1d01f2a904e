// Package util provides small internal helpers shared across InboxMesh
// packages. Nothing here is part of the public API.
package util

import "github.com/google/uuid"

// NewID generates a new unique identifier for streams and runs.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }

// Truncate bounds s to at most max characters, cutting on rune boundaries.
// A non-positive max means no limit. It never fails regardless of input size.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
