// Package backend adapts heterogeneous retrieval stores to one interface.
//
// Three adapters exist:
//
//   - GraphAdapter: entity name lookup plus one-hop relation expansion over
//     the SQLite graph tables. Rank is traversal order, no scores.
//   - VectorAdapter: embeds the query and runs cosine similarity over
//     document embeddings. Rank follows similarity, carried as RawScore.
//   - TripleStoreAdapter: translates relation phrasings into triple
//     patterns and matches them against an external HTTP store.
//
// Adapters normalize failures into the shared error taxonomy
// (types.ErrBackendUnavailable, types.ErrBackendTimeout,
// types.ErrBackendQuery) so the resilience layer can treat all backends
// uniformly. They never compare scores across backends; fusion works on
// ranks alone.
package backend
