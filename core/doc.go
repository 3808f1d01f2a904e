// Package core provides the foundational domain types shared by the
// InboxMesh streaming and batch layers. It defines:
//
//   - ExecutionEvent (closed tagged-variant vocabulary for executor output)
//   - RawEvent (the duck-typed wire shape events arrive in)
//   - DispatchTable / Classify (explicit, configuration-driven mapping from
//     source event kinds onto the typed variant set)
//
// The package intentionally keeps implementation concerns (frame encoding,
// batch traversal, rule evaluation) out of scope so that higher layers can
// depend on a small, stable vocabulary.
package core
