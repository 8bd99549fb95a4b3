package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tallgrass-ai/kbsearch-mcp/internal/storage"
	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// GraphAdapter queries the entity/relation graph. Ranking is traversal
// order: direct name matches first, then entities related to the best
// match. Graph hits carry no RawScore.
type GraphAdapter struct {
	store storage.Store
}

// NewGraphAdapter creates a graph adapter over the given store
func NewGraphAdapter(store storage.Store) *GraphAdapter {
	return &GraphAdapter{store: store}
}

func (g *GraphAdapter) Name() types.Backend {
	return types.BackendGraph
}

// Query looks up entities by the classifier's detected names, falling back
// to query tokens when none were detected, then expands one hop from the
// best match.
func (g *GraphAdapter) Query(ctx context.Context, params QueryParams) ([]types.Hit, error) {
	names := params.Entities
	if len(names) == 0 {
		names = queryTokens(params.Query)
	}
	if len(names) == 0 {
		return []types.Hit{}, nil
	}

	entities, err := g.store.FindEntitiesByName(ctx, names)
	if err != nil {
		return nil, graphError(err)
	}

	seen := make(map[string]bool, len(entities))
	hits := make([]types.Hit, 0, len(entities))
	for _, e := range entities {
		seen[e.RID] = true
		hits = append(hits, entityHit(e, len(hits)+1))
	}

	// One-hop expansion from the best direct match
	if len(entities) > 0 {
		related, err := g.store.RelatedEntities(ctx, entities[0].RID)
		if err != nil {
			return nil, graphError(err)
		}
		for _, e := range related {
			if seen[e.RID] {
				continue
			}
			seen[e.RID] = true
			hits = append(hits, entityHit(e, len(hits)+1))
		}
	}

	if params.Limit > 0 && len(hits) > params.Limit {
		hits = hits[:params.Limit]
	}
	return hits, nil
}

func entityHit(e *storage.Entity, rank int) types.Hit {
	hit := types.Hit{
		ID:          e.RID,
		Title:       e.Name,
		Content:     e.Summary,
		Source:      types.BackendGraph,
		BackendRank: rank,
		EntityType:  e.EntityType,
	}
	if e.FilePath != "" {
		hit.Locator = &types.Locator{FilePath: e.FilePath, Line: e.Line}
	}
	return hit
}

func graphError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", types.ErrBackendTimeout, err)
	}
	return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
}

// queryTokens extracts candidate entity names from raw query text.
// Short tokens and common words carry no lookup signal.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "how": true, "what": true,
	"where": true, "does": true, "are": true, "can": true, "with": true,
	"that": true, "this": true, "from": true, "into": true, "about": true,
	"why": true, "when": true, "which": true, "who": true, "use": true,
}

func queryTokens(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '?', '!', ';', ':', '"', '\'':
			return true
		}
		return false
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopWords[strings.ToLower(f)] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
