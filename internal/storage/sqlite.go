package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested row doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Entity operations

// UpsertEntity inserts or updates an entity keyed by its RID
func (s *SQLiteStore) UpsertEntity(ctx context.Context, entity *Entity) error {
	if entity.RID == "" || entity.Name == "" {
		return fmt.Errorf("entity rid and name are required")
	}
	query := `
		INSERT INTO entities (rid, name, entity_type, summary, file_path, line, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rid) DO UPDATE SET
			name = excluded.name,
			entity_type = excluded.entity_type,
			summary = excluded.summary,
			file_path = excluded.file_path,
			line = excluded.line,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	result, err := s.db.ExecContext(ctx, query,
		entity.RID, entity.Name, entity.EntityType, entity.Summary,
		entity.FilePath, entity.Line, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entity.ID = id
	}
	entity.UpdatedAt = now
	return nil
}

// GetEntity retrieves an entity by RID
func (s *SQLiteStore) GetEntity(ctx context.Context, rid string) (*Entity, error) {
	query := `
		SELECT id, rid, name, entity_type, summary, file_path, line, created_at, updated_at
		FROM entities
		WHERE rid = ?
	`
	entity, err := scanEntity(s.db.QueryRowContext(ctx, query, rid))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return entity, nil
}

// FindEntitiesByName looks up entities for each name in order. Exact
// (case-insensitive) matches come first per name, then prefix matches.
// Order across names follows the input; duplicates are dropped.
func (s *SQLiteStore) FindEntitiesByName(ctx context.Context, names []string) ([]*Entity, error) {
	query := `
		SELECT id, rid, name, entity_type, summary, file_path, line, created_at, updated_at
		FROM entities
		WHERE name = ? COLLATE NOCASE OR name LIKE ? || '%' COLLATE NOCASE
		ORDER BY (name = ? COLLATE NOCASE) DESC, name
	`
	seen := make(map[string]bool)
	var entities []*Entity
	for _, name := range names {
		if name == "" {
			continue
		}
		rows, err := s.db.QueryContext(ctx, query, name, name, name)
		if err != nil {
			return nil, fmt.Errorf("failed to find entities: %w", err)
		}
		for rows.Next() {
			entity, err := scanEntityRows(rows)
			if err != nil {
				_ = rows.Close()
				return nil, err
			}
			if seen[entity.RID] {
				continue
			}
			seen[entity.RID] = true
			entities = append(entities, entity)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, err
		}
		_ = rows.Close()
	}
	return entities, nil
}

// EntityNames returns up to limit distinct entity names for the classifier's
// name index
func (s *SQLiteStore) EntityNames(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10000
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT name FROM entities ORDER BY name LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0, limit)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Relation operations

// UpsertRelation inserts a relation, ignoring exact duplicates
func (s *SQLiteStore) UpsertRelation(ctx context.Context, relation *Relation) error {
	if relation.SourceRID == "" || relation.TargetRID == "" || relation.Predicate == "" {
		return fmt.Errorf("relation source, target and predicate are required")
	}
	query := `
		INSERT INTO relations (source_rid, target_rid, predicate)
		VALUES (?, ?, ?)
		ON CONFLICT(source_rid, target_rid, predicate) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		relation.SourceRID, relation.TargetRID, relation.Predicate)
	if err != nil {
		return fmt.Errorf("failed to upsert relation: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		relation.ID = id
	}
	return nil
}

// RelatedEntities returns the entities connected to rid in either direction,
// ordered by relation insertion order. Traversal order, not a score, is the
// ranking signal for graph results.
func (s *SQLiteStore) RelatedEntities(ctx context.Context, rid string) ([]*Entity, error) {
	query := `
		SELECT e.id, e.rid, e.name, e.entity_type, e.summary, e.file_path, e.line, e.created_at, e.updated_at
		FROM relations r
		JOIN entities e ON e.rid = CASE WHEN r.source_rid = ? THEN r.target_rid ELSE r.source_rid END
		WHERE r.source_rid = ? OR r.target_rid = ?
		ORDER BY r.id
	`
	rows, err := s.db.QueryContext(ctx, query, rid, rid, rid)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]bool)
	var entities []*Entity
	for rows.Next() {
		entity, err := scanEntityRows(rows)
		if err != nil {
			return nil, err
		}
		if entity.RID == rid || seen[entity.RID] {
			continue
		}
		seen[entity.RID] = true
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// Document operations

// UpsertDocument inserts or updates a document keyed by its RID
func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *Document) error {
	if doc.RID == "" || doc.Title == "" {
		return fmt.Errorf("document rid and title are required")
	}
	query := `
		INSERT INTO documents (rid, title, content, source, url, published_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(rid) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			source = excluded.source,
			url = excluded.url,
			published_at = excluded.published_at
	`
	var published interface{}
	if doc.PublishedAt != nil {
		published = *doc.PublishedAt
	}
	result, err := s.db.ExecContext(ctx, query,
		doc.RID, doc.Title, doc.Content, doc.Source, doc.URL, published)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		doc.ID = id
	}
	return nil
}

// GetDocument retrieves a document by RID
func (s *SQLiteStore) GetDocument(ctx context.Context, rid string) (*Document, error) {
	query := `
		SELECT id, rid, title, content, source, url, published_at, created_at
		FROM documents
		WHERE rid = ?
	`
	var doc Document
	var content, source, url sql.NullString
	var publishedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, rid).Scan(
		&doc.ID, &doc.RID, &doc.Title, &content, &source, &url,
		&publishedAt, &doc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc.Content = content.String
	doc.Source = source.String
	doc.URL = url.String
	if publishedAt.Valid {
		t := publishedAt.Time
		doc.PublishedAt = &t
	}
	return &doc, nil
}

// Embedding operations

// UpsertEmbedding inserts or replaces the embedding for a document
func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	if embedding.DocumentRID == "" || len(embedding.Vector) == 0 {
		return fmt.Errorf("embedding document rid and vector are required")
	}
	query := `
		INSERT INTO embeddings (document_rid, vector, dimension, provider, model)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_rid) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`
	result, err := s.db.ExecContext(ctx, query,
		embedding.DocumentRID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		embedding.ID = id
	}
	return nil
}

// SearchVector performs vector similarity search over document embeddings
func (s *SQLiteStore) SearchVector(ctx context.Context, vector []float32, limit int, filters *VectorFilters) ([]VectorResult, error) {
	return searchVector(ctx, s.db, vector, limit, filters)
}

// Status operations

// Stats returns row counts and the approximate index size
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM entities", &stats.EntitiesCount},
		{"SELECT COUNT(*) FROM relations", &stats.RelationsCount},
		{"SELECT COUNT(*) FROM documents", &stats.DocumentsCount},
		{"SELECT COUNT(*) FROM embeddings", &stats.EmbeddingsCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to collect stats: %w", err)
		}
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return stats, nil
}

// scanner abstracts *sql.Row and *sql.Rows for entity scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row scanner) (*Entity, error) {
	var entity Entity
	var entityType, summary, filePath sql.NullString
	var line sql.NullInt64
	err := row.Scan(
		&entity.ID, &entity.RID, &entity.Name, &entityType, &summary,
		&filePath, &line, &entity.CreatedAt, &entity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	entity.EntityType = entityType.String
	entity.Summary = summary.String
	entity.FilePath = filePath.String
	entity.Line = int(line.Int64)
	return &entity, nil
}

func scanEntityRows(rows *sql.Rows) (*Entity, error) {
	entity, err := scanEntity(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}
	return entity, nil
}
