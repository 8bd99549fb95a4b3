// Package orchestrator coordinates a search end to end.
//
// Pipeline per request: validate and normalize the query, check the result
// cache, classify (or honor an explicit strategy override), fan out to the
// selected backends concurrently, fuse the surviving lists, and cache the
// response.
//
// Failure policy: a backend that times out or is unreachable degrades the
// response (its status is reported, confidence drops) but does not fail
// the request as long as at least one backend answered. Open circuits are
// skipped before any call is made. Only two outcomes are errors: invalid
// input, and no backend producing anything.
package orchestrator
