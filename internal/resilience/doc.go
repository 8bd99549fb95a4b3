// Package resilience isolates backend failures from the search pipeline.
//
// Two mechanisms work together:
//
//   - Per-backend circuit breakers. Consecutive unavailability or timeout
//     failures open the circuit; while open, the backend is skipped
//     entirely. After a cooldown one probe request tests recovery.
//   - An LRU result cache with per-entry TTL. Fused responses are cached
//     by request shape and served as deep copies, so a degraded backend
//     does not take recently answered queries down with it.
//
// Malformed-query errors do not trip breakers; they indicate a bad request,
// not an unhealthy backend.
package resilience
