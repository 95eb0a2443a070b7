package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks portfolio-rag/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
// Distance is the squared Euclidean distance between the query and the point.
type SearchResult struct {
	PointID  string
	Distance float64
	Meta     map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points, closest first.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// CollectionExists reports whether the collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// EnsureCollection creates the collection with the given vector size if it is missing.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// DeleteCollection drops the collection. A missing collection is not an error.
	DeleteCollection(ctx context.Context, collection string) error

	// CountPoints returns the exact number of points stored in the collection.
	CountPoints(ctx context.Context, collection string) (int, error)
}
