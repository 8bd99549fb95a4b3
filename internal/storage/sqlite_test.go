package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertAndGetEntity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entity := &Entity{
		RID:        "ent:orchestrator",
		Name:       "Orchestrator",
		EntityType: "type",
		Summary:    "Coordinates the retrieval pipeline",
		FilePath:   "internal/orchestrator/orchestrator.go",
		Line:       42,
	}
	require.NoError(t, store.UpsertEntity(ctx, entity))

	got, err := store.GetEntity(ctx, "ent:orchestrator")
	require.NoError(t, err)
	assert.Equal(t, "Orchestrator", got.Name)
	assert.Equal(t, "type", got.EntityType)
	assert.Equal(t, 42, got.Line)

	// Upsert again with changed fields, same RID
	entity.Summary = "Updated summary"
	require.NoError(t, store.UpsertEntity(ctx, entity))

	got, err = store.GetEntity(ctx, "ent:orchestrator")
	require.NoError(t, err)
	assert.Equal(t, "Updated summary", got.Summary)
}

func TestGetEntityNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetEntity(context.Background(), "ent:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertEntityValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.UpsertEntity(ctx, &Entity{Name: "no rid"}))
	assert.Error(t, store.UpsertEntity(ctx, &Entity{RID: "ent:noname"}))
}

func TestFindEntitiesByName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seed := []*Entity{
		{RID: "ent:parser", Name: "Parser", EntityType: "type"},
		{RID: "ent:parseconfig", Name: "ParseConfig", EntityType: "function"},
		{RID: "ent:cache", Name: "Cache", EntityType: "type"},
	}
	for _, e := range seed {
		require.NoError(t, store.UpsertEntity(ctx, e))
	}

	// Exact match (case-insensitive) ranks before prefix matches
	entities, err := store.FindEntitiesByName(ctx, []string{"parser"})
	require.NoError(t, err)
	require.NotEmpty(t, entities)
	assert.Equal(t, "Parser", entities[0].Name)

	// Prefix matches are included
	entities, err = store.FindEntitiesByName(ctx, []string{"Parse"})
	require.NoError(t, err)
	assert.Len(t, entities, 2)

	// Input order is preserved across names, duplicates dropped
	entities, err = store.FindEntitiesByName(ctx, []string{"Cache", "Parser", "Parser"})
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Cache", entities[0].Name)
	assert.Equal(t, "Parser", entities[1].Name)

	// Empty names are skipped, unknown names yield nothing
	entities, err = store.FindEntitiesByName(ctx, []string{"", "NoSuchEntity"})
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestEntityNames(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, e := range []*Entity{
		{RID: "ent:b", Name: "Beta"},
		{RID: "ent:a", Name: "Alpha"},
		{RID: "ent:c", Name: "Gamma"},
	} {
		require.NoError(t, store.UpsertEntity(ctx, e))
	}

	names, err := store.EntityNames(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, names)

	names, err = store.EntityNames(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestRelatedEntities(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, e := range []*Entity{
		{RID: "ent:a", Name: "A"},
		{RID: "ent:b", Name: "B"},
		{RID: "ent:c", Name: "C"},
		{RID: "ent:d", Name: "D"},
	} {
		require.NoError(t, store.UpsertEntity(ctx, e))
	}

	// a->b, c->a, a->d: related to a should be b, c, d in insertion order
	require.NoError(t, store.UpsertRelation(ctx, &Relation{SourceRID: "ent:a", TargetRID: "ent:b", Predicate: "references"}))
	require.NoError(t, store.UpsertRelation(ctx, &Relation{SourceRID: "ent:c", TargetRID: "ent:a", Predicate: "contains"}))
	require.NoError(t, store.UpsertRelation(ctx, &Relation{SourceRID: "ent:a", TargetRID: "ent:d", Predicate: "mentions"}))

	related, err := store.RelatedEntities(ctx, "ent:a")
	require.NoError(t, err)
	require.Len(t, related, 3)
	assert.Equal(t, "ent:b", related[0].RID)
	assert.Equal(t, "ent:c", related[1].RID)
	assert.Equal(t, "ent:d", related[2].RID)

	// Duplicate relation rows are ignored on insert
	require.NoError(t, store.UpsertRelation(ctx, &Relation{SourceRID: "ent:a", TargetRID: "ent:b", Predicate: "references"}))
	related, err = store.RelatedEntities(ctx, "ent:a")
	require.NoError(t, err)
	assert.Len(t, related, 3)
}

func TestUpsertAndGetDocument(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	published := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	doc := &Document{
		RID:         "doc:design-notes",
		Title:       "Design Notes",
		Content:     "Notes on the fusion pipeline",
		Source:      "docs",
		URL:         "https://example.com/design-notes",
		PublishedAt: &published,
	}
	require.NoError(t, store.UpsertDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc:design-notes")
	require.NoError(t, err)
	assert.Equal(t, "Design Notes", got.Title)
	assert.Equal(t, "docs", got.Source)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, got.PublishedAt.Equal(published))

	// Undated documents round-trip with a nil PublishedAt
	require.NoError(t, store.UpsertDocument(ctx, &Document{RID: "doc:undated", Title: "Undated"}))
	got, err = store.GetDocument(ctx, "doc:undated")
	require.NoError(t, err)
	assert.Nil(t, got.PublishedAt)

	_, err = store.GetDocument(ctx, "doc:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertEntity(ctx, &Entity{RID: "ent:a", Name: "A"}))
	require.NoError(t, store.UpsertEntity(ctx, &Entity{RID: "ent:b", Name: "B"}))
	require.NoError(t, store.UpsertRelation(ctx, &Relation{SourceRID: "ent:a", TargetRID: "ent:b", Predicate: "references"}))
	require.NoError(t, store.UpsertDocument(ctx, &Document{RID: "doc:a", Title: "A"}))
	require.NoError(t, store.UpsertEmbedding(ctx, &Embedding{
		DocumentRID: "doc:a",
		Vector:      SerializeVector([]float32{1, 0, 0}),
		Dimension:   3,
		Provider:    "ollama",
		Model:       "nomic-embed-text",
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.EntitiesCount)
	assert.Equal(t, 1, stats.RelationsCount)
	assert.Equal(t, 1, stats.DocumentsCount)
	assert.Equal(t, 1, stats.EmbeddingsCount)
	assert.Greater(t, stats.IndexSizeMB, 0.0)
}
