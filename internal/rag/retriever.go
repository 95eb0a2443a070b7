package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/index"
	"portfolio-rag/internal/indexer"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_index.go -package=mocks portfolio-rag/internal/rag VectorIndex
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingester.go -package=mocks portfolio-rag/internal/rag Ingester

// VectorIndex is the nearest-chunk search the retriever runs against.
type VectorIndex interface {
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)
}

// Ingester rebuilds the index from the uploads directory.
type Ingester interface {
	Ingest(ctx context.Context, reset bool) (indexer.Stats, error)
}

// ErrIndexRecovery is returned when the index had drifted to another embedding size and
// rebuilding it failed. The index is unusable until it is reingested.
var ErrIndexRecovery = errors.New("embedding dimension mismatch detected and automatic reindex failed")

// dimensionMismatchPhrases identify a search error caused by vectors of a different size than
// the collection, e.g. after switching embedding models. Each must appear together with "got".
var dimensionMismatchPhrases = []string{
	"expecting embedding with dimension",
	"vector dimension error",
	"expected dim",
}

// Retriever searches the index and repairs it in two bounded cases: a dimension mismatch
// triggers one destructive reindex and one retry, and an empty result triggers one
// non-destructive bootstrap ingestion and one retry. Recovery is shared between concurrent
// callers and runs detached from their cancellation.
type Retriever struct {
	index    VectorIndex
	ingester Ingester
	group    singleflight.Group
}

// NewRetriever creates a Retriever.
func NewRetriever(ix VectorIndex, ingester Ingester) *Retriever {
	return &Retriever{index: ix, ingester: ingester}
}

// recovery tracks what a single Search call has already spent.
type recovery struct {
	reindexed bool
}

// Search returns up to k chunks, closest first.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]RetrievedChunk, error) {
	var state recovery

	hits, err := r.searchHealing(ctx, query, k, &state)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		if r.bootstrap(ctx) {
			if hits, err = r.searchHealing(ctx, query, k, &state); err != nil {
				return nil, err
			}
		}
	}

	chunks := make([]RetrievedChunk, len(hits))
	for i, h := range hits {
		chunks[i] = RetrievedChunk{
			Content:    h.Content,
			SourceName: h.SourceName,
			Distance:   h.Distance,
		}
	}
	return chunks, nil
}

// searchHealing runs one search; on a dimension mismatch it reindexes and retries once,
// unless this call already reindexed.
func (r *Retriever) searchHealing(ctx context.Context, query string, k int, state *recovery) ([]index.Hit, error) {
	hits, err := r.index.Search(ctx, query, k)
	if err == nil {
		return hits, nil
	}
	if state.reindexed || !isDimensionMismatch(err) {
		return nil, err
	}
	state.reindexed = true

	logger := contextutil.LoggerFromContext(ctx)
	logger.WarnContext(ctx, "embedding dimension mismatch, rebuilding index", "error", err)

	if _, rerr, _ := r.group.Do("reindex", func() (any, error) {
		return r.ingester.Ingest(context.WithoutCancel(ctx), true)
	}); rerr != nil {
		recoveriesTotal.WithLabelValues("reindex", "error").Inc()
		logger.ErrorContext(ctx, "automatic reindex failed", "error", rerr)
		return nil, fmt.Errorf("%w: %v", ErrIndexRecovery, rerr)
	}
	recoveriesTotal.WithLabelValues("reindex", "ok").Inc()

	return r.index.Search(ctx, query, k)
}

// bootstrap ingests the uploads without resetting and reports whether anything was indexed.
// Failures are logged and swallowed.
func (r *Retriever) bootstrap(ctx context.Context) bool {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "no results, bootstrapping index from uploads")

	v, err, _ := r.group.Do("bootstrap", func() (any, error) {
		return r.ingester.Ingest(context.WithoutCancel(ctx), false)
	})
	if err != nil {
		recoveriesTotal.WithLabelValues("bootstrap", "error").Inc()
		logger.WarnContext(ctx, "bootstrap ingestion failed", "error", err)
		return false
	}

	stats, _ := v.(indexer.Stats)
	if stats.Chunks == 0 {
		recoveriesTotal.WithLabelValues("bootstrap", "empty").Inc()
		return false
	}
	recoveriesTotal.WithLabelValues("bootstrap", "ok").Inc()
	logger.InfoContext(ctx, "bootstrap ingestion completed", "documents", stats.Documents, "chunks", stats.Chunks)
	return true
}

func isDimensionMismatch(err error) bool {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "got") {
		return false
	}
	return containsAny(msg, dimensionMismatchPhrases)
}
