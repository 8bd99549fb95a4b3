package resilience

import (
	"time"

	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// Config tunes the shared resilience state
type Config struct {
	FailureThreshold int
	Cooldown         time.Duration
	CacheSize        int
}

// State bundles the per-backend circuit breakers and the result cache.
// One State is shared across every search the orchestrator runs.
type State struct {
	breakers map[types.Backend]*Breaker
	cache    *ResultCache
	cooldown time.Duration
}

// NewState creates breakers for every known backend plus the result cache
func NewState(cfg Config) *State {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	breakers := make(map[types.Backend]*Breaker, len(types.AllBackends))
	for _, b := range types.AllBackends {
		breakers[b] = NewBreaker(BreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			Cooldown:         cooldown,
		})
	}
	return &State{
		breakers: breakers,
		cache:    NewResultCache(cfg.CacheSize),
		cooldown: cooldown,
	}
}

// Breaker returns the circuit breaker for a backend
func (s *State) Breaker(backend types.Backend) *Breaker {
	return s.breakers[backend]
}

// Cache returns the shared result cache
func (s *State) Cache() *ResultCache {
	return s.cache
}

// Cooldown returns the configured breaker cooldown; callers use it as the
// retry-after hint when every backend is open.
func (s *State) Cooldown() time.Duration {
	return s.cooldown
}

// BreakerStates reports each backend's circuit state, for status surfaces
func (s *State) BreakerStates() map[types.Backend]string {
	out := make(map[types.Backend]string, len(s.breakers))
	for b, br := range s.breakers {
		out[b] = br.State().String()
	}
	return out
}
