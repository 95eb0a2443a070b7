// Package index is the text-level vector index: it embeds chunks, keeps their text
// in SQLite and their vectors in the vector store, and answers nearest-chunk queries.
package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/storage"
	"portfolio-rag/internal/vectorstore"
)

const embedBatchSize = 64

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is one source file ready to be indexed.
type Document struct {
	SourceName string
	SourcePath string
	Hash       string
	Chars      int
	Chunks     []string
}

// Hit is one nearest chunk. Distance is non-negative; smaller is closer.
type Hit struct {
	ID         string
	Content    string
	SourceName string
	Distance   float64
}

// Status describes the index for health checks.
type Status struct {
	Collection string
	Exists     bool
	Points     int
	Documents  int
}

// Index guards the vector collection and the chunk catalog with one reader/writer lock.
// Searches share the lock; every mutation is exclusive, and Rebuild holds it across
// reset and re-add so readers never see a half-built index.
type Index struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	documents  storage.DocumentStore
	chunks     storage.ChunkStore
	collection string

	mu sync.RWMutex
}

// New creates an Index over the given collection.
func New(embedder Embedder, store vectorstore.VectorStore, documents storage.DocumentStore, chunks storage.ChunkStore, collection string) *Index {
	return &Index{
		embedder:   embedder,
		store:      store,
		documents:  documents,
		chunks:     chunks,
		collection: collection,
	}
}

// Collection returns the vector collection name.
func (ix *Index) Collection() string {
	return ix.collection
}

// Search embeds query and returns up to k nearest chunks, closest first.
// A collection that does not exist yet yields no hits rather than an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	logger := contextutil.LoggerFromContext(ctx)

	exists, err := ix.store.CollectionExists(ctx, ix.collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.DebugContext(ctx, "collection missing, nothing to search", "collection", ix.collection)
		return nil, nil
	}

	vecs, err := ix.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vecs))
	}

	results, err := ix.store.Search(ctx, ix.collection, vecs[0], k)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.PointID
	}
	records, err := ix.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk text: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		rec, ok := records[r.PointID]
		if !ok {
			logger.WarnContext(ctx, "vector without chunk record, skipping", "point_id", r.PointID)
			continue
		}
		hits = append(hits, Hit{
			ID:         rec.ID,
			Content:    rec.Text,
			SourceName: rec.SourceName,
			Distance:   r.Distance,
		})
	}
	return hits, nil
}

// Reset drops every vector and catalog row.
func (ix *Index) Reset(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.resetLocked(ctx)
}

// AddDocuments indexes docs. A document whose source name is already indexed is replaced.
// It returns the number of chunks written.
func (ix *Index) AddDocuments(ctx context.Context, docs []Document) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.addLocked(ctx, docs)
}

// Rebuild replaces the whole index with docs under a single exclusive lock.
func (ix *Index) Rebuild(ctx context.Context, docs []Document) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.resetLocked(ctx); err != nil {
		return 0, err
	}
	return ix.addLocked(ctx, docs)
}

// RemoveDocument deletes a document's vectors and catalog rows. Unknown sources are ignored.
func (ix *Index) RemoveDocument(ctx context.Context, sourceName string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	doc, err := ix.documents.GetBySource(ctx, sourceName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return ix.removeLocked(ctx, doc.ID)
}

// Documents lists what is currently indexed.
func (ix *Index) Documents(ctx context.Context) ([]storage.DocumentRecord, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.documents.ListAll(ctx)
}

// Empty reports whether the vector collection is missing or holds no points.
func (ix *Index) Empty(ctx context.Context) (bool, error) {
	st, err := ix.Status(ctx)
	if err != nil {
		return false, err
	}
	return !st.Exists || st.Points == 0, nil
}

// Status reports collection existence, point count and document count.
func (ix *Index) Status(ctx context.Context) (Status, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	st := Status{Collection: ix.collection}
	exists, err := ix.store.CollectionExists(ctx, ix.collection)
	if err != nil {
		return st, err
	}
	st.Exists = exists
	if exists {
		if st.Points, err = ix.store.CountPoints(ctx, ix.collection); err != nil {
			return st, err
		}
	}
	docs, err := ix.documents.ListAll(ctx)
	if err != nil {
		return st, err
	}
	st.Documents = len(docs)
	return st, nil
}

func (ix *Index) resetLocked(ctx context.Context) error {
	if err := ix.store.DeleteCollection(ctx, ix.collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if err := ix.documents.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index reset", "collection", ix.collection)
	return nil
}

func (ix *Index) removeLocked(ctx context.Context, documentID string) error {
	ids, err := ix.chunks.ListIDsByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	exists, err := ix.store.CollectionExists(ctx, ix.collection)
	if err != nil {
		return err
	}
	if exists {
		if err := ix.store.Delete(ctx, ix.collection, ids); err != nil {
			return err
		}
	}
	return ix.documents.Delete(ctx, documentID)
}

func (ix *Index) addLocked(ctx context.Context, docs []Document) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)
	total := 0
	collectionReady := false

	for _, doc := range docs {
		if len(doc.Chunks) == 0 {
			continue
		}

		vecs, err := ix.embed(ctx, doc.Chunks)
		if err != nil {
			return total, fmt.Errorf("failed to embed %s: %w", doc.SourceName, err)
		}

		if !collectionReady {
			if err := ix.store.EnsureCollection(ctx, ix.collection, len(vecs[0])); err != nil {
				return total, err
			}
			collectionReady = true
		}

		if existing, err := ix.documents.GetBySource(ctx, doc.SourceName); err == nil {
			if err := ix.removeLocked(ctx, existing.ID); err != nil {
				return total, fmt.Errorf("failed to replace %s: %w", doc.SourceName, err)
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			return total, err
		}

		record := &storage.DocumentRecord{
			SourceName: doc.SourceName,
			SourcePath: doc.SourcePath,
			Hash:       doc.Hash,
			Chars:      doc.Chars,
		}
		if err := ix.documents.Upsert(ctx, record); err != nil {
			return total, err
		}

		records := make([]storage.ChunkRecord, len(doc.Chunks))
		points := make([]vectorstore.Point, len(doc.Chunks))
		for i, text := range doc.Chunks {
			id := uuid.New().String()
			records[i] = storage.ChunkRecord{
				ID:         id,
				DocumentID: record.ID,
				ChunkIndex: i,
				SourceName: doc.SourceName,
				Text:       text,
			}
			points[i] = vectorstore.Point{
				ID:  id,
				Vec: vecs[i],
				Meta: map[string]any{
					"document_id": record.ID,
					"source_name": doc.SourceName,
					"chunk_index": i,
				},
			}
		}

		if err := ix.chunks.InsertBatch(ctx, records); err != nil {
			_ = ix.documents.Delete(ctx, record.ID)
			return total, err
		}
		if err := ix.store.Upsert(ctx, ix.collection, points); err != nil {
			_ = ix.documents.Delete(ctx, record.ID)
			return total, err
		}

		total += len(records)
		logger.InfoContext(ctx, "document indexed", "source", doc.SourceName, "chunks", len(records))
	}
	return total, nil
}

func (ix *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		vecs, err := ix.embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(vecs))
		}
		out = append(out, vecs...)
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return nil, fmt.Errorf("embedder returned empty vectors")
	}
	return out, nil
}
