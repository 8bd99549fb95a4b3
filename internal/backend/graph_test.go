package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallgrass-ai/kbsearch-mcp/internal/storage"
	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

func setupGraphStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	entities := []*storage.Entity{
		{RID: "ent:orchestrator", Name: "Orchestrator", EntityType: "type", Summary: "Coordinates searches", FilePath: "internal/orchestrator/orchestrator.go", Line: 20},
		{RID: "ent:cache", Name: "Cache", EntityType: "type", Summary: "LRU result cache"},
		{RID: "ent:fuse", Name: "Fuse", EntityType: "function"},
	}
	for _, e := range entities {
		require.NoError(t, store.UpsertEntity(ctx, e))
	}
	require.NoError(t, store.UpsertRelation(ctx, &storage.Relation{
		SourceRID: "ent:orchestrator", TargetRID: "ent:cache", Predicate: "uses",
	}))
	require.NoError(t, store.UpsertRelation(ctx, &storage.Relation{
		SourceRID: "ent:orchestrator", TargetRID: "ent:fuse", Predicate: "calls",
	}))
	return store
}

func TestGraphAdapterDetectedEntities(t *testing.T) {
	adapter := NewGraphAdapter(setupGraphStore(t))
	assert.Equal(t, types.BackendGraph, adapter.Name())

	hits, err := adapter.Query(context.Background(), QueryParams{
		Query:    "how does Orchestrator work",
		Entities: []string{"Orchestrator"},
		Limit:    10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	// Direct match first, then one-hop neighbors in relation order
	assert.Equal(t, "ent:orchestrator", hits[0].ID)
	require.Len(t, hits, 3)
	assert.Equal(t, "ent:cache", hits[1].ID)
	assert.Equal(t, "ent:fuse", hits[2].ID)

	// Ranks are 1-based and contiguous
	for i, hit := range hits {
		assert.Equal(t, i+1, hit.BackendRank)
		assert.NoError(t, hit.Validate())
		assert.Nil(t, hit.RawScore)
	}

	// Locator present only when the entity has a file path
	require.NotNil(t, hits[0].Locator)
	assert.Equal(t, 20, hits[0].Locator.Line)
	assert.Nil(t, hits[1].Locator)
}

func TestGraphAdapterTokenFallback(t *testing.T) {
	adapter := NewGraphAdapter(setupGraphStore(t))

	// No detected entities: tokens from the query drive the lookup
	hits, err := adapter.Query(context.Background(), QueryParams{
		Query: "what is the Cache?",
		Limit: 10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ent:cache", hits[0].ID)
}

func TestGraphAdapterNoMatches(t *testing.T) {
	adapter := NewGraphAdapter(setupGraphStore(t))

	hits, err := adapter.Query(context.Background(), QueryParams{
		Query: "zzz qqq xyzzy",
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestGraphAdapterLimit(t *testing.T) {
	adapter := NewGraphAdapter(setupGraphStore(t))

	hits, err := adapter.Query(context.Background(), QueryParams{
		Entities: []string{"Orchestrator"},
		Limit:    2,
	})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestQueryTokens(t *testing.T) {
	tokens := queryTokens("How does the Orchestrator use Cache?")
	assert.Equal(t, []string{"Orchestrator", "Cache"}, tokens)

	assert.Empty(t, queryTokens("how and the"))
	assert.Empty(t, queryTokens(""))
}
