package fusion

import (
	"sort"

	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// Engine merges per-backend hit lists into one ranked list. It works on
// ranks, never on backend-native scores; those are not comparable across
// backends.
type Engine struct {
	strategy Strategy
}

// NewEngine creates a fusion engine; a nil strategy means RRF with the
// default constant.
func NewEngine(strategy Strategy) *Engine {
	if strategy == nil {
		strategy = NewRRF(0)
	}
	return &Engine{strategy: strategy}
}

// StrategyName reports the configured fusion strategy
func (e *Engine) StrategyName() string {
	return e.strategy.Name()
}

// Fuse merges the given lists, dedupes by identity key, scores with the
// configured strategy, and returns at most limit hits. Empty input yields
// an empty list; that is a valid result, not an error. Fusing the same
// input twice gives the same output.
func (e *Engine) Fuse(lists map[types.Backend][]types.Hit, limit int) []types.FusedHit {
	merged := make(map[string]*types.FusedHit)
	var order []string

	// Deterministic backend order keeps representative-hit selection stable
	// regardless of map iteration
	for _, backend := range types.AllBackends {
		hits, ok := lists[backend]
		if !ok {
			continue
		}
		for _, hit := range hits {
			if hit.Validate() != nil {
				continue
			}
			key := hit.IdentityKey()
			fused, exists := merged[key]
			if !exists {
				fused = &types.FusedHit{
					Hit:           hit,
					PerSourceRank: make(map[types.Backend]int),
				}
				merged[key] = fused
				order = append(order, key)
			} else {
				mergeMetadata(fused, &hit)
			}
			if _, seen := fused.PerSourceRank[hit.Source]; !seen {
				fused.PerSourceRank[hit.Source] = hit.BackendRank
				fused.Sources = append(fused.Sources, hit.Source)
			}
		}
	}

	results := make([]types.FusedHit, 0, len(merged))
	for _, key := range order {
		fused := merged[key]
		types.SortBackends(fused.Sources)
		fused.FusedScore = e.strategy.Score(fused.PerSourceRank)
		results = append(results, *fused)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		// More corroborating sources wins
		if len(a.Sources) != len(b.Sources) {
			return len(a.Sources) > len(b.Sources)
		}
		// Better single-backend rank wins
		if ar, br := a.BestRank(), b.BestRank(); ar != br {
			return ar < br
		}
		// Identity key as the final, fully deterministic tiebreak
		return a.IdentityKey() < b.IdentityKey()
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// mergeMetadata fills gaps in the representative hit from a duplicate seen
// in another backend. The first-seen hit stays the representative; later
// ones only contribute fields it lacks.
func mergeMetadata(fused *types.FusedHit, hit *types.Hit) {
	if fused.Content == "" && hit.Content != "" {
		fused.Content = hit.Content
	}
	if fused.EntityType == "" && hit.EntityType != "" {
		fused.EntityType = hit.EntityType
	}
	if fused.Locator == nil && hit.Locator != nil {
		loc := *hit.Locator
		fused.Locator = &loc
	}
}
