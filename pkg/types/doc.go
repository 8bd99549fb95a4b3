// Package types defines the shared data model for hybrid knowledge search.
//
// The core types flow through the whole engine:
//
//   - Hit: a normalized result from one backend, ranked 1-based within its
//     originating list. IDs are stable across repeated queries so fusion can
//     dedupe the same underlying item.
//   - FusedHit: a Hit enriched with the set of contributing backends, the
//     per-backend ranks, and the fused score.
//   - RoutingDecision: the classifier's per-query output (strategy,
//     detected entities, confidence). Never persisted.
//   - SearchResponse: the ordered fused list plus metadata (strategy used,
//     per-backend status, duration, cache hit).
//
// The error taxonomy distinguishes caller mistakes (ErrValidation), single
// backend failures (ErrBackendUnavailable, ErrBackendTimeout,
// ErrBackendQuery) that are absorbed by the resilience layer, and total
// failures (ErrNoBackendAvailable, ErrTimeout) that surface to the caller.
// An empty result set is a valid success, not an error.
package types
