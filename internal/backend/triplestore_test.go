package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

func TestRuleTranslatorRelationPhrasings(t *testing.T) {
	tr := NewRuleTranslator()
	ctx := context.Background()

	tests := []struct {
		query     string
		subject   string
		predicate string
		object    string
	}{
		{"what calls ParseConfig?", "", "calls", "parseconfig"},
		{"Orchestrator depends on Cache", "orchestrator", "depends_on", "cache"},
		{"which modules import storage", "", "imports", "storage"},
		{"what uses the breaker", "", "uses", "breaker"},
	}

	for _, tc := range tests {
		pattern, ok := tr.Translate(ctx, tc.query)
		require.True(t, ok, tc.query)
		assert.Equal(t, tc.subject, pattern.Subject, tc.query)
		assert.Equal(t, tc.predicate, pattern.Predicate, tc.query)
		assert.Equal(t, tc.object, pattern.Object, tc.query)
	}
}

func TestRuleTranslatorTopicSplit(t *testing.T) {
	tr := NewRuleTranslator()

	pattern, ok := tr.Translate(context.Background(), "what calls ParseConfig in the config package")
	require.True(t, ok)
	assert.Equal(t, "calls", pattern.Predicate)
	assert.Equal(t, "parseconfig", pattern.Object)
	assert.Equal(t, "the config package", pattern.Topic)
}

func TestRuleTranslatorNoRelation(t *testing.T) {
	tr := NewRuleTranslator()

	_, ok := tr.Translate(context.Background(), "how does caching work")
	assert.False(t, ok)
}

func TestTripleStoreAdapterQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"rows": []map[string]interface{}{
				{"rid": "tr:1", "subject": "orchestrator", "predicate": "uses", "object": "cache", "score": 0.9},
				{"subject": "orchestrator", "predicate": "uses", "object": "breaker"},
			},
		})
	}))
	defer server.Close()

	adapter := NewTripleStoreAdapter(server.URL, nil)
	assert.Equal(t, types.BackendTripleStore, adapter.Name())

	hits, err := adapter.Query(context.Background(), QueryParams{
		Query: "what does orchestrator use",
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "tr:1", hits[0].ID)
	assert.Equal(t, "orchestrator uses cache", hits[0].Title)
	require.NotNil(t, hits[0].RawScore)
	assert.Equal(t, 0.9, *hits[0].RawScore)

	// Row without rid gets a composed identity
	assert.Equal(t, "orchestrator|uses|breaker", hits[1].ID)
	assert.Nil(t, hits[1].RawScore)

	for i, hit := range hits {
		assert.Equal(t, i+1, hit.BackendRank)
		assert.NoError(t, hit.Validate())
	}
}

func TestTripleStoreAdapterTopicBroadening(t *testing.T) {
	var patterns []Pattern
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Pattern Pattern `json:"pattern"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		patterns = append(patterns, req.Pattern)

		// Topic-constrained query finds nothing; broadened query matches
		if req.Pattern.Topic != "" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"rows": []interface{}{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"rows": []map[string]interface{}{
				{"rid": "tr:1", "subject": "a", "predicate": "calls", "object": "parseconfig"},
			},
		})
	}))
	defer server.Close()

	adapter := NewTripleStoreAdapter(server.URL, nil)
	hits, err := adapter.Query(context.Background(), QueryParams{
		Query: "what calls ParseConfig in the config package",
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.Len(t, patterns, 2)
	assert.NotEmpty(t, patterns[0].Topic)
	assert.Empty(t, patterns[1].Topic)
}

func TestTripleStoreAdapterNoRelationPhrasing(t *testing.T) {
	adapter := NewTripleStoreAdapter("http://localhost:1", nil)

	_, err := adapter.Query(context.Background(), QueryParams{Query: "how does caching work"})
	assert.ErrorIs(t, err, types.ErrBackendQuery)
}

func TestTripleStoreAdapterUnreachable(t *testing.T) {
	// Port 1 refuses connections
	adapter := NewTripleStoreAdapter("http://127.0.0.1:1", nil)

	_, err := adapter.Query(context.Background(), QueryParams{Query: "a calls b"})
	assert.ErrorIs(t, err, types.ErrBackendUnavailable)
}

func TestTripleStoreAdapterClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad pattern", http.StatusBadRequest)
	}))
	defer server.Close()

	adapter := NewTripleStoreAdapter(server.URL, nil)
	_, err := adapter.Query(context.Background(), QueryParams{Query: "a calls b"})
	assert.ErrorIs(t, err, types.ErrBackendQuery)
}

func TestTripleStoreAdapterServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewTripleStoreAdapter(server.URL, nil)
	_, err := adapter.Query(context.Background(), QueryParams{Query: "a calls b"})
	assert.ErrorIs(t, err, types.ErrBackendUnavailable)
}
