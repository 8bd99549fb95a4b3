package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/tallgrass-ai/kbsearch-mcp/internal/embedder"
	"github.com/tallgrass-ai/kbsearch-mcp/internal/storage"
	"github.com/tallgrass-ai/kbsearch-mcp/pkg/types"
)

// VectorAdapter embeds the query and runs cosine similarity search over
// document embeddings. Hits carry the similarity as RawScore.
type VectorAdapter struct {
	store    storage.Store
	embedder embedder.Embedder
}

// NewVectorAdapter creates a vector adapter over the given store and embedder
func NewVectorAdapter(store storage.Store, emb embedder.Embedder) *VectorAdapter {
	return &VectorAdapter{store: store, embedder: emb}
}

func (v *VectorAdapter) Name() types.Backend {
	return types.BackendVector
}

func (v *VectorAdapter) Query(ctx context.Context, params QueryParams) ([]types.Hit, error) {
	emb, err := v.embedder.Embed(ctx, params.Query)
	if err != nil {
		// Without an embedding the backend cannot serve at all
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding: %v", types.ErrBackendTimeout, err)
		}
		return nil, fmt.Errorf("%w: embedding: %v", types.ErrBackendUnavailable, err)
	}

	results, err := v.store.SearchVector(ctx, emb.Vector, params.Limit, storageFilters(params.Filters))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", types.ErrBackendTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}

	hits := make([]types.Hit, 0, len(results))
	for _, r := range results {
		doc, err := v.store.GetDocument(ctx, r.DocumentRID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue // embedding without its document, skip
			}
			return nil, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
		}
		score := r.Similarity
		hits = append(hits, types.Hit{
			ID:          doc.RID,
			Title:       doc.Title,
			Content:     snippet(doc.Content),
			Source:      types.BackendVector,
			BackendRank: len(hits) + 1,
			EntityType:  "document",
			RawScore:    &score,
		})
	}
	return hits, nil
}

const maxSnippetLen = 500

// snippet truncates document content for transport
func snippet(content string) string {
	if len(content) <= maxSnippetLen {
		return content
	}
	return content[:maxSnippetLen] + "..."
}
