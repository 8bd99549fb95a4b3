// Package classifier routes queries to retrieval strategies.
//
// Classification combines trigram entity detection with lexical rules:
//
//   - Relation phrasing ("what calls X", "A depends on B") routes to the
//     triple store plus vector, when a triple store is configured.
//   - Queries naming a known entity alongside code-construct vocabulary
//     route to the graph.
//   - Conceptual questions with no recognized entity route to vector only.
//   - Everything else fans out to graph and vector (unified).
//
// Entity detection compares query tokens against the indexed entity names
// using the Dice coefficient over padded character trigrams. The index is
// consulted per query; when it is unreachable, classification degrades to
// pattern-only rules with reduced confidence rather than failing the
// search.
package classifier
