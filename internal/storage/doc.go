// Package storage provides SQLite-based persistence for the indexed
// knowledge base.
//
// The store backs two of the retrieval backends:
//   - The graph backend reads entities and relations (the property graph
//     built by external indexing tooling).
//   - The vector backend reads document embeddings.
//
// # Database Schema
//
// Tables:
//   - entities: Graph nodes (code symbols, documents, concepts) keyed by a
//     stable RID
//   - relations: Directed edges between entities
//   - documents: Knowledge-base items with optional publication dates
//   - embeddings: Vector embeddings for documents
//
// RIDs are stable resource identifiers assigned at index time; they are what
// makes fusion deduplication possible across repeated queries.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("~/.kbsearch/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	entities, err := store.FindEntitiesByName(ctx, []string{"Orchestrator"})
//	related, err := store.RelatedEntities(ctx, entities[0].RID)
//
// # Vector Operations
//
//	results, err := store.SearchVector(ctx, queryVector, 10, &storage.VectorFilters{
//	    Source:         "docs",
//	    IncludeUndated: true,
//	})
//
// Vector search uses cosine similarity via the sqlite-vec extension (CGO
// build) or a pure Go implementation (purego build). Both paths return the
// same deterministic ordering.
//
// # Build Tags
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Includes sqlite-vec extension for fast vector operations
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (purego tag, default):
//
//   - Uses modernc.org/sqlite driver
//
//   - Pure Go vector operations (slower)
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage
