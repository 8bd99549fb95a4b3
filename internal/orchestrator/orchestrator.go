package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tallgrass-ai/kbsearch-mcp/internal/backend"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/classifier"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/fusion"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/resilience"
	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

const (
	// DefaultBudget bounds one whole search request
	DefaultBudget = 30 * time.Second
	// maxBackendTimeout caps the per-backend share of the budget
	maxBackendTimeout = 10 * time.Second

	// Cache TTLs per strategy. Graph results change only on reindex, so
	// they live longer.
	graphTTL   = 15 * time.Minute
	defaultTTL = 2 * time.Minute

	// degradedPenalty reduces confidence when a selected backend failed
	degradedPenalty = 0.25
)

// Config tunes the orchestrator
type Config struct {
	Budget         time.Duration // 0 means DefaultBudget
	BackendTimeout time.Duration // 0 means Budget/2 capped at 10s
}

// Orchestrator runs the search pipeline: validate, consult the cache,
// classify, fan out to backends, fuse, cache.
type Orchestrator struct {
	adapters   map[types.Backend]backend.Adapter
	classifier *classifier.Classifier
	engine     *fusion.Engine
	state      *resilience.State

	budget         time.Duration
	backendTimeout time.Duration
}

// New wires an orchestrator from its parts. Adapters define which backends
// exist; strategies naming an absent backend simply skip it.
func New(adapters []backend.Adapter, cls *classifier.Classifier, engine *fusion.Engine, state *resilience.State, cfg Config) *Orchestrator {
	byName := make(map[types.Backend]backend.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}

	budget := cfg.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	backendTimeout := cfg.BackendTimeout
	if backendTimeout <= 0 {
		backendTimeout = budget / 2
		if backendTimeout > maxBackendTimeout {
			backendTimeout = maxBackendTimeout
		}
	}

	return &Orchestrator{
		adapters:       byName,
		classifier:     cls,
		engine:         engine,
		state:          state,
		budget:         budget,
		backendTimeout: backendTimeout,
	}
}

// Search answers a query. Partial backend failure degrades the result
// rather than failing it; only losing every backend is an error.
func (o *Orchestrator) Search(ctx context.Context, query string, opts types.SearchOptions) (*types.SearchResponse, error) {
	start := time.Now()

	normalized, limit, err := o.validate(query, &opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	hint := "auto"
	if opts.PreferredStrategy != "" {
		hint = string(opts.PreferredStrategy)
	}
	key := resilience.Key(hint, strings.ToLower(normalized), opts.Filters, limit)

	if cached, ok := o.state.Cache().Get(key); ok {
		cached.CacheHit = true
		cached.DurationMs = time.Since(start).Milliseconds()
		return cached, nil
	}

	decision := o.classify(ctx, normalized, opts.PreferredStrategy)

	lists, statuses, degraded, err := o.fanOut(ctx, normalized, limit, opts.Filters, decision)
	if err != nil {
		return nil, err
	}

	resp := &types.SearchResponse{
		Results:        o.engine.Fuse(lists, limit),
		StrategyUsed:   decision.Strategy,
		SourcesQueried: statuses,
		Confidence:     responseConfidence(decision, degraded),
		DurationMs:     time.Since(start).Milliseconds(),
	}

	// Degraded answers are not pinned: a recovered backend should serve the
	// next identical query. A backend that is simply not configured is a
	// static condition, not degradation.
	if !degraded {
		o.state.Cache().Put(key, resp, ttlFor(decision.Strategy))
	}
	return resp, nil
}

// validate checks the request and returns the normalized query and
// effective limit
func (o *Orchestrator) validate(query string, opts *types.SearchOptions) (string, int, error) {
	normalized := strings.Join(strings.Fields(query), " ")
	if normalized == "" {
		return "", 0, fmt.Errorf("%w: query must not be empty", types.ErrValidation)
	}
	if len(normalized) > types.MaxQueryLength {
		return "", 0, fmt.Errorf("%w: query exceeds %d characters", types.ErrValidation, types.MaxQueryLength)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = types.DefaultLimit
	}
	if limit > types.MaxLimit {
		limit = types.MaxLimit
	}

	if err := opts.Filters.Validate(); err != nil {
		return "", 0, err
	}
	if opts.PreferredStrategy != "" && !opts.PreferredStrategy.Valid() {
		return "", 0, fmt.Errorf("%w: unknown strategy %q", types.ErrValidation, opts.PreferredStrategy)
	}
	return normalized, limit, nil
}

// classify routes the query, honoring an explicit strategy override
func (o *Orchestrator) classify(ctx context.Context, query string, preferred types.Strategy) types.RoutingDecision {
	if preferred != "" {
		return types.RoutingDecision{
			Strategy:   preferred,
			Confidence: 1.0,
		}
	}
	return o.classifier.Classify(ctx, query)
}

// fanOut queries every selected backend concurrently and collects per-source
// outcomes. It returns an error only when no backend could be attempted or
// none produced results before failing. The degraded flag reports whether a
// configured backend failed or was skipped; missing adapters are a static
// deployment shape and do not count.
func (o *Orchestrator) fanOut(ctx context.Context, query string, limit int, filters *types.SearchFilters, decision types.RoutingDecision) (map[types.Backend][]types.Hit, map[types.Backend]types.SourceStatus, bool, error) {
	statuses := make(map[types.Backend]types.SourceStatus)
	degraded := false

	var selected []types.Backend
	for _, b := range decision.Strategy.Backends() {
		if _, ok := o.adapters[b]; !ok {
			statuses[b] = types.SourceUnavailable
			continue
		}
		if !o.state.Breaker(b).Allow() {
			statuses[b] = types.SourceCircuitOpen
			degraded = true
			continue
		}
		selected = append(selected, b)
	}

	if len(selected) == 0 {
		return nil, nil, false, &types.NoBackendAvailableError{
			Attempted:  statuses,
			RetryAfter: o.retryAfter(decision.Strategy.Backends()),
		}
	}

	lists := make(map[types.Backend][]types.Hit, len(selected))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range selected {
		g.Go(func() error {
			bctx, cancel := context.WithTimeout(gctx, o.backendTimeout)
			defer cancel()

			hits, err := o.adapters[b].Query(bctx, backend.QueryParams{
				Query:    query,
				Entities: decision.DetectedEntities,
				Limit:    limit,
				Filters:  filters,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				statuses[b] = o.recordFailure(b, err, ctx.Err() != nil)
				degraded = true
				return nil // partial failure is not fatal
			}
			o.state.Breaker(b).RecordSuccess()
			statuses[b] = types.SourceOK
			lists[b] = hits
			return nil
		})
	}
	_ = g.Wait()

	if len(lists) == 0 {
		if ctx.Err() != nil {
			return nil, nil, false, fmt.Errorf("%w: %v", types.ErrTimeout, ctx.Err())
		}
		return nil, nil, false, &types.NoBackendAvailableError{
			Attempted:  statuses,
			RetryAfter: o.retryAfter(decision.Strategy.Backends()),
		}
	}
	return lists, statuses, degraded, nil
}

// recordFailure maps a backend error to a source status and feeds the
// circuit breaker. A malformed query means the backend answered, so it
// counts as breaker success: a half-open probe slot must be released either
// way or the circuit wedges. When the whole request's deadline expired the
// backend is not blamed for it.
func (o *Orchestrator) recordFailure(b types.Backend, err error, requestExpired bool) types.SourceStatus {
	log.Printf("orchestrator: backend %s failed: %v", b, err)

	if errors.Is(err, types.ErrBackendQuery) {
		o.state.Breaker(b).RecordSuccess()
		return types.SourceQueryError
	}

	var status types.SourceStatus
	switch {
	case errors.Is(err, types.ErrBackendTimeout):
		status = types.SourceTimedOut
	case errors.Is(err, types.ErrBackendUnavailable):
		status = types.SourceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = types.SourceTimedOut
	default:
		status = types.SourceUnavailable
	}
	if requestExpired {
		// The whole request ran out of time; don't blame the backend, but
		// hand back any probe slot this call may hold.
		o.state.Breaker(b).ReleaseProbe()
	} else {
		o.state.Breaker(b).RecordFailure()
	}
	return status
}

// retryAfter picks the longest remaining cooldown among the strategy's
// backends, falling back to the configured cooldown
func (o *Orchestrator) retryAfter(backends []types.Backend) time.Duration {
	var longest time.Duration
	for _, b := range backends {
		if br := o.state.Breaker(b); br != nil {
			if d := br.RetryAfter(); d > longest {
				longest = d
			}
		}
	}
	if longest == 0 {
		longest = o.state.Cooldown()
	}
	return longest
}

func responseConfidence(decision types.RoutingDecision, degraded bool) float64 {
	confidence := decision.Confidence
	if degraded {
		confidence -= degradedPenalty
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	return confidence
}

func ttlFor(strategy types.Strategy) time.Duration {
	if strategy == types.StrategyGraph {
		return graphTTL
	}
	return defaultTTL
}
