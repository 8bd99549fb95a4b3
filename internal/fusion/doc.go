// Package fusion merges ranked hit lists from multiple backends.
//
// The default strategy is reciprocal rank fusion (RRF): each backend
// contributes 1/(k+rank) to a hit's fused score, k=60. RRF needs only
// ranks, which sidesteps the incomparability of backend-native scores
// (graph traversal order vs cosine similarity).
//
// Hits appearing in multiple backends are deduplicated by identity key and
// accumulate score from every list, so corroborated results rise. Ties
// break deterministically: source count, then best per-backend rank, then
// identity key.
package fusion
