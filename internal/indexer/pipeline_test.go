package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-rag/internal/index"
	"portfolio-rag/internal/storage"
	"portfolio-rag/internal/vectorstore"
)

// letterEmbedder embeds text as counts of a few letters; good enough to exercise the index.
type letterEmbedder struct {
	calls int
}

func (e *letterEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		out[i] = []float32{
			float32(strings.Count(lower, "a")),
			float32(strings.Count(lower, "e")),
			float32(strings.Count(lower, "o")),
		}
	}
	return out, nil
}

type pipelineFixture struct {
	dir      string
	store    *vectorstore.MemoryStore
	index    *index.Index
	embedder *letterEmbedder
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.New(filepath.Join(tmp, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.Migrate(db))

	uploadsDir := filepath.Join(tmp, "uploads")
	require.NoError(t, os.MkdirAll(uploadsDir, 0755))

	store := vectorstore.NewMemoryStore()
	emb := &letterEmbedder{}
	ix := index.New(emb, store, storage.NewDocumentRepo(db), storage.NewChunkRepo(db), "test_collection")

	p, err := NewPipeline(ix, uploadsDir, 200, 40, 50)
	require.NoError(t, err)

	return &pipelineFixture{dir: uploadsDir, store: store, index: ix, embedder: emb, pipeline: p}
}

func (f *pipelineFixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0644))
}

var resumeText = strings.Repeat("Engenheira de software com experiencia em Go, APIs e dados. ", 10)

func TestPipeline_NoFiles(t *testing.T) {
	f := newPipelineFixture(t)

	stats, err := f.pipeline.Ingest(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	exists, err := f.store.CollectionExists(context.Background(), "test_collection")
	require.NoError(t, err)
	assert.False(t, exists, "index must be untouched when there is nothing to ingest")
	assert.Equal(t, 0, f.embedder.calls)
}

func TestPipeline_SkipsSmallDocuments(t *testing.T) {
	f := newPipelineFixture(t)
	f.write(t, "Curriculo.txt", resumeText)
	f.write(t, "nota.txt", "curta")
	f.write(t, ".gitkeep", "")

	stats, err := f.pipeline.Ingest(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.SkippedTooSmall)
	assert.Greater(t, stats.Chunks, 1)

	docs, err := f.index.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Curriculo.txt", docs[0].SourceName)
}

func TestPipeline_OnlySmallDocuments(t *testing.T) {
	f := newPipelineFixture(t)
	f.write(t, "a.txt", "pouco")

	stats, err := f.pipeline.Ingest(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, Stats{SkippedTooSmall: 1}, stats)

	empty, err := f.index.Empty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestPipeline_Incremental(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.write(t, "Curriculo.txt", resumeText)
	f.write(t, "projetos.txt", strings.Repeat("Projeto open source de observabilidade escrito em Go. ", 5))

	first, err := f.pipeline.Ingest(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Documents)

	second, err := f.pipeline.Ingest(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Documents)
	assert.Equal(t, 0, second.Chunks)
	assert.Equal(t, 2, second.Unchanged)

	f.write(t, "projetos.txt", strings.Repeat("Projeto de busca semantica com embeddings e Qdrant. ", 5))
	require.NoError(t, os.Remove(filepath.Join(f.dir, "Curriculo.txt")))

	third, err := f.pipeline.Ingest(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Documents)
	assert.Equal(t, 1, third.Removed)
	assert.Equal(t, 0, third.Unchanged)

	docs, err := f.index.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "projetos.txt", docs[0].SourceName)

	hits, err := f.index.Search(ctx, "busca semantica", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.Equal(t, "projetos.txt", h.SourceName)
		assert.NotContains(t, h.Content, "observabilidade")
	}
}

func TestPipeline_IncrementalAfterCollectionDropped(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.write(t, "Curriculo.txt", resumeText)

	_, err := f.pipeline.Ingest(ctx, false)
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteCollection(ctx, "test_collection"))

	stats, err := f.pipeline.Ingest(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Greater(t, stats.Chunks, 0)
}

func TestPipeline_Reset(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.write(t, "Curriculo.txt", resumeText)

	first, err := f.pipeline.Ingest(ctx, true)
	require.NoError(t, err)

	second, err := f.pipeline.Ingest(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, first.Documents, second.Documents)
	assert.Equal(t, first.Chunks, second.Chunks)

	points, err := f.store.CountPoints(ctx, "test_collection")
	require.NoError(t, err)
	assert.Equal(t, second.Chunks, points, "reset must not leave stale vectors behind")
}

func TestPipeline_RendersMarkdown(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	f.write(t, "README.md", "# Portfolio RAG\n\n"+strings.Repeat("Servico de **perguntas** sobre o portfolio. ", 5))

	_, err := f.pipeline.Ingest(ctx, true)
	require.NoError(t, err)

	hits, err := f.index.Search(ctx, "portfolio", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.NotContains(t, h.Content, "**")
		assert.NotContains(t, h.Content, "# ")
	}
}

func TestNewPipeline_InvalidOverlap(t *testing.T) {
	_, err := NewPipeline(nil, t.TempDir(), 100, 100, 0)
	assert.Error(t, err)
}

func TestPipeline_CanceledContext(t *testing.T) {
	f := newPipelineFixture(t)
	f.write(t, "Curriculo.txt", resumeText)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Ingest(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}
