// Package vectorstore defines the contract between the record service and the
// vector database holding record embeddings.
//
// Backends live in sub-packages: pinecone (managed, default), local (SQLite via
// gorm), pgvector (Postgres) and graph (Neo4j vector index). All of them must be
// safe for concurrent use.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Update when the target id does not exist.
var ErrNotFound = errors.New("vector not found")

// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Metadata is the side data stored next to each embedding.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Vector is a stored entry: id, embedding and metadata.
type Vector struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// Match is a single similarity-query hit. Higher scores are closer.
type Match struct {
	ID       string    `json:"id"`
	Score    float32   `json:"score"`
	Values   []float32 `json:"values,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

type QueryRequest struct {
	Vector        []float32
	TopK          int
	IncludeValues bool
}

type ListOptions struct {
	Limit  int
	Cursor string
}

// Page is one slice of a listing. NextCursor is empty on the last page.
type Page struct {
	Items      []Vector
	NextCursor string
}

// IndexSpec describes the collection a backend must provision and talk to.
type IndexSpec struct {
	Name      string
	Namespace string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

type Store interface {
	// EnsureIndex creates the collection if it does not exist. It is idempotent.
	EnsureIndex(ctx context.Context) error

	// Upsert inserts or replaces vectors by id.
	Upsert(ctx context.Context, vectors ...Vector) error

	// Update overwrites values and metadata of an existing vector.
	Update(ctx context.Context, vector Vector) error

	// Fetch returns the vectors found for ids. Missing ids are absent from the map.
	Fetch(ctx context.Context, ids ...string) (map[string]Vector, error)

	// Query returns up to TopK matches ordered by descending score.
	Query(ctx context.Context, req QueryRequest) ([]Match, error)

	// List pages through all vectors of the namespace.
	List(ctx context.Context, opts ListOptions) (*Page, error)

	// Delete removes vectors by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids ...string) error

	Close() error
}

// CheckDimension validates a vector against the index dimension.
func (s IndexSpec) CheckDimension(values []float32) error {
	if len(values) != s.Dimension {
		return &ErrDimensionMismatch{Expected: s.Dimension, Actual: len(values)}
	}
	return nil
}
