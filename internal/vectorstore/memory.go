package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore with exact squared-L2 search.
// It suits local runs without Qdrant and small corpora; nothing survives a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dim    int
	points map[string]Point
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

// Upsert inserts or updates points in the collection.
func (s *MemoryStore) Upsert(_ context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s not found", collection)
	}
	for _, p := range points {
		if len(p.Vec) != c.dim {
			return fmt.Errorf("vector dimension error: expected dim: %d, got %d", c.dim, len(p.Vec))
		}
		c.points[p.ID] = p
	}
	return nil
}

// Search returns the k nearest points by squared Euclidean distance.
func (s *MemoryStore) Search(_ context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", collection)
	}
	if len(query) != c.dim {
		return nil, fmt.Errorf("vector dimension error: expected dim: %d, got %d", c.dim, len(query))
	}

	results := make([]SearchResult, 0, len(c.points))
	for id, p := range c.points {
		var d float64
		for i, v := range p.Vec {
			diff := float64(v - query[i])
			d += diff * diff
		}
		results = append(results, SearchResult{PointID: id, Distance: d, Meta: p.Meta})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].PointID < results[j].PointID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete removes points by their IDs.
func (s *MemoryStore) Delete(_ context.Context, collection string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[collection]; ok {
		for _, id := range ids {
			delete(c.points, id)
		}
	}
	return nil
}

// CollectionExists reports whether the collection exists.
func (s *MemoryStore) CollectionExists(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[collection]
	return ok, nil
}

// EnsureCollection creates the collection if it is missing.
func (s *MemoryStore) EnsureCollection(_ context.Context, collection string, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[collection]; ok {
		if c.dim != vectorSize {
			return fmt.Errorf("vector dimension error: expected dim: %d, got %d", c.dim, vectorSize)
		}
		return nil
	}
	s.collections[collection] = &memCollection{dim: vectorSize, points: make(map[string]Point)}
	return nil
}

// DeleteCollection drops the collection.
func (s *MemoryStore) DeleteCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

// CountPoints returns the number of points in the collection.
func (s *MemoryStore) CountPoints(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %s not found", collection)
	}
	return len(c.points), nil
}
