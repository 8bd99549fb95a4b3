package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocument(t *testing.T, store *SQLiteStore, rid, source string, published *time.Time, vector []float32) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.UpsertDocument(ctx, &Document{
		RID:         rid,
		Title:       rid,
		Source:      source,
		PublishedAt: published,
	}))
	require.NoError(t, store.UpsertEmbedding(ctx, &Embedding{
		DocumentRID: rid,
		Vector:      SerializeVector(vector),
		Dimension:   len(vector),
		Provider:    "test",
		Model:       "test",
	}))
}

func TestSearchVectorRanksBySimilarity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedDocument(t, store, "doc:exact", "", nil, []float32{1, 0, 0})
	seedDocument(t, store, "doc:close", "", nil, []float32{0.9, 0.1, 0})
	seedDocument(t, store, "doc:far", "", nil, []float32{0, 1, 0})

	results, err := store.SearchVector(ctx, []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc:exact", results[0].DocumentRID)
	assert.Equal(t, "doc:close", results[1].DocumentRID)
	assert.Equal(t, "doc:far", results[2].DocumentRID)
	assert.InDelta(t, 1.0, results[0].Similarity, 0.001)
}

func TestSearchVectorLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedDocument(t, store, "doc:a", "", nil, []float32{1, 0})
	seedDocument(t, store, "doc:b", "", nil, []float32{0.5, 0.5})
	seedDocument(t, store, "doc:c", "", nil, []float32{0, 1})

	results, err := store.SearchVector(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchVectorSourceFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedDocument(t, store, "doc:docs", "docs", nil, []float32{1, 0})
	seedDocument(t, store, "doc:blog", "blog", nil, []float32{1, 0})

	results, err := store.SearchVector(ctx, []float32{1, 0}, 10, &VectorFilters{Source: "docs"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc:docs", results[0].DocumentRID)
}

func TestSearchVectorDateFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	jan := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	seedDocument(t, store, "doc:jan", "", &jan, []float32{1, 0})
	seedDocument(t, store, "doc:jun", "", &jun, []float32{1, 0})
	seedDocument(t, store, "doc:undated", "", nil, []float32{1, 0})

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// Date range excludes undated documents by default
	results, err := store.SearchVector(ctx, []float32{1, 0}, 10, &VectorFilters{PublishedFrom: &from})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc:jun", results[0].DocumentRID)

	// IncludeUndated widens the range to undated documents
	results, err = store.SearchVector(ctx, []float32{1, 0}, 10, &VectorFilters{PublishedFrom: &from, IncludeUndated: true})
	require.NoError(t, err)
	rids := make(map[string]bool)
	for _, r := range results {
		rids[r.DocumentRID] = true
	}
	assert.True(t, rids["doc:jun"])
	assert.True(t, rids["doc:undated"])
	assert.False(t, rids["doc:jan"])

	// Bounded range
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	results, err = store.SearchVector(ctx, []float32{1, 0}, 10, &VectorFilters{PublishedTo: &to})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc:jan", results[0].DocumentRID)
}

func TestSearchVectorDimensionMismatch(t *testing.T) {
	if VectorExtensionAvailable {
		t.Skip("fallback-only behavior")
	}
	store := setupTestStore(t)
	ctx := context.Background()

	seedDocument(t, store, "doc:3d", "", nil, []float32{1, 0, 0})
	seedDocument(t, store, "doc:2d", "", nil, []float32{1, 0})

	// Mismatched dimensions are skipped, not errors
	results, err := store.SearchVector(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc:2d", results[0].DocumentRID)
}

func TestSerializeDeserializeVector(t *testing.T) {
	original := []float32{0.1, -0.5, 3.14159, 0}

	blob := SerializeVector(original)
	assert.Len(t, blob, len(original)*4)

	restored := DeserializeVector(blob)
	assert.Equal(t, original, restored)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 0.0001)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.0001)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 0.0001)

	// Mismatched lengths and zero vectors yield 0
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestSortCandidatesDeterministic(t *testing.T) {
	candidates := []candidate{
		{rid: "doc:c", score: 0.5},
		{rid: "doc:a", score: 0.5},
		{rid: "doc:b", score: 0.9},
	}
	sortCandidates(candidates)
	assert.Equal(t, "doc:b", candidates[0].rid)
	assert.Equal(t, "doc:a", candidates[1].rid)
	assert.Equal(t, "doc:c", candidates[2].rid)
}
