package storage

import (
	"context"
	"time"
)

// Store defines the interface for querying the indexed knowledge base.
// The index itself (entities, relations, documents, embeddings) is built by
// external tooling; this layer reads it and keeps it maintainable.
type Store interface {
	// Entity operations
	UpsertEntity(ctx context.Context, entity *Entity) error
	GetEntity(ctx context.Context, rid string) (*Entity, error)
	FindEntitiesByName(ctx context.Context, names []string) ([]*Entity, error)
	EntityNames(ctx context.Context, limit int) ([]string, error)

	// Relation operations
	UpsertRelation(ctx context.Context, relation *Relation) error
	RelatedEntities(ctx context.Context, rid string) ([]*Entity, error)

	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, rid string) (*Document, error)

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	SearchVector(ctx context.Context, vector []float32, limit int, filters *VectorFilters) ([]VectorResult, error)

	// Status operations
	Stats(ctx context.Context) (*Stats, error)

	// Database operations
	Close() error
}

// Entity is a node in the code/document property graph
type Entity struct {
	ID         int64
	RID        string // Stable resource identifier, unique
	Name       string
	EntityType string // function, type, document, concept, ...
	Summary    string
	FilePath   string // Optional source location
	Line       int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Relation is a directed edge between two entities
type Relation struct {
	ID        int64
	SourceRID string
	TargetRID string
	Predicate string // contains, mentions, references, ...
	CreatedAt time.Time
}

// Document is an indexed knowledge-base item with optional publication date
type Document struct {
	ID          int64
	RID         string // Stable resource identifier, unique
	Title       string
	Content     string
	Source      string // Originating knowledge source (repo, feed, ...)
	URL         string
	PublishedAt *time.Time // Nullable
	CreatedAt   time.Time
}

// Embedding holds the serialized vector for a document
type Embedding struct {
	ID          int64
	DocumentRID string
	Vector      []byte // Serialized float32 array, little-endian
	Dimension   int
	Provider    string
	Model       string
	CreatedAt   time.Time
}

// VectorFilters narrows vector search at the SQL layer
type VectorFilters struct {
	Source         string
	PublishedFrom  *time.Time // Inclusive
	PublishedTo    *time.Time // Inclusive
	IncludeUndated bool
}

// VectorResult is one row from vector similarity search
type VectorResult struct {
	DocumentRID string
	Similarity  float64
}

// Stats summarizes the indexed knowledge base
type Stats struct {
	EntitiesCount   int
	RelationsCount  int
	DocumentsCount  int
	EmbeddingsCount int
	IndexSizeMB     float64
}
