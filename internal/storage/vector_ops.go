package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// searchVector performs vector similarity search using cosine similarity
func searchVector(ctx context.Context, db *sql.DB, queryVector []float32, limit int, filters *VectorFilters) ([]VectorResult, error) {
	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, queryVector, limit, filters)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, db, queryVector, limit, filters)
}

// searchVectorOptimized uses the sqlite-vec extension for SQL-based vector
// similarity search
func searchVectorOptimized(ctx context.Context, db *sql.DB, queryVector []float32, limit int, filters *VectorFilters) ([]VectorResult, error) {
	queryVectorBlob := serializeVector(queryVector)

	// sqlite-vec's vec_distance_cosine returns distance (lower is better);
	// convert to similarity so both build modes rank identically
	query := `
		SELECT
			d.rid,
			1.0 - vec_distance_cosine(e.vector, ?) as similarity
		FROM documents d
		INNER JOIN embeddings e ON d.rid = e.document_rid
		WHERE 1=1
	`
	args := []interface{}{queryVectorBlob}

	query, args = applyDocumentFilters(query, args, filters)

	query += " ORDER BY similarity DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if limit <= 0 {
		return []VectorResult{}, nil
	}
	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var result VectorResult
		if err := rows.Scan(&result.DocumentRID, &result.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// searchVectorFallback performs vector search using Go-based cosine similarity.
// Used when the sqlite-vec extension is not available (purego builds).
func searchVectorFallback(ctx context.Context, db *sql.DB, queryVector []float32, limit int, filters *VectorFilters) ([]VectorResult, error) {
	query := `
		SELECT
			d.rid,
			e.vector
		FROM documents d
		INNER JOIN embeddings e ON d.rid = e.document_rid
		WHERE 1=1
	`
	args := []interface{}{}

	query, args = applyDocumentFilters(query, args, filters)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]candidate, 0, 1000)
	for rows.Next() {
		var rid string
		var vectorBlob []byte
		if err := rows.Scan(&rid, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		similarity := cosineSimilarity(queryVector, vector)
		candidates = append(candidates, candidate{rid: rid, score: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortCandidates(candidates)
	return buildVectorResults(candidates, limit), nil
}

// applyDocumentFilters adds WHERE clause filters shared by both search paths
func applyDocumentFilters(query string, args []interface{}, filters *VectorFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}

	if filters.Source != "" {
		query += " AND d.source = ?"
		args = append(args, filters.Source)
	}

	if filters.PublishedFrom != nil || filters.PublishedTo != nil {
		dateCond := ""
		if filters.PublishedFrom != nil {
			dateCond = "d.published_at >= ?"
			args = append(args, *filters.PublishedFrom)
		}
		if filters.PublishedTo != nil {
			if dateCond != "" {
				dateCond += " AND "
			}
			dateCond += "d.published_at <= ?"
			args = append(args, *filters.PublishedTo)
		}
		if filters.IncludeUndated {
			query += " AND ((" + dateCond + ") OR d.published_at IS NULL)"
		} else {
			query += " AND (" + dateCond + ")"
		}
	}

	return query, args
}

// buildVectorResults creates VectorResult slice from candidates
func buildVectorResults(candidates []candidate, limit int) []VectorResult {
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	results := make([]VectorResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = VectorResult{
			DocumentRID: candidates[i].rid,
			Similarity:  candidates[i].score,
		}
	}
	return results
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate represents a document with its similarity score
type candidate struct {
	rid   string
	score float64
}

// sortCandidates sorts candidates by score descending, rid ascending on ties
// so both build modes return a deterministic order
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rid < candidates[j].rid
	})
}

// SerializeVector is an exported helper for callers that persist embeddings
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for callers that read embeddings
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
