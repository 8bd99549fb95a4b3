// Package embedder generates vector embeddings for search queries.
//
// The vector backend embeds the incoming query with the same provider and
// model that produced the stored document embeddings; mixing models gives
// meaningless similarities, so the provider is configured once per index.
//
// # Providers
//
//   - ollama: local Ollama server (default model nomic-embed-text, 768 dims)
//   - openai: OpenAI API (text-embedding-3-small, 1536 dims)
//   - local: deterministic hash vectors for development and tests
//
// # Usage
//
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.Embed(ctx, "how does the cache evict entries")
//
// Provider selection via environment:
//
//	KBSEARCH_EMBEDDING_PROVIDER=ollama|openai|local
//	KBSEARCH_OLLAMA_URL=http://localhost:11434
//	KBSEARCH_OLLAMA_MODEL=nomic-embed-text
//	OPENAI_API_KEY=sk-...
//
// Remote providers retry with exponential backoff and cache results in an
// LRU keyed by content hash.
package embedder
