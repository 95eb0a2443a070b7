package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"portfolio-rag/internal/index"
	"portfolio-rag/internal/indexer"
	"portfolio-rag/internal/rag/mocks"
	"portfolio-rag/internal/storage"
	"portfolio-rag/internal/vectorstore"
)

var longContext = strings.Repeat("Built an internal data platform with Go services, Kafka pipelines and Postgres. ", 5)

type engineFixture struct {
	engine Engine
	index  *mocks.MockVectorIndex
	ingest *mocks.MockIngester
	chat   *mocks.MockChatModel
	dir    string
}

func newEngineFixture(t *testing.T, showSources bool) *engineFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &engineFixture{
		index:  mocks.NewMockVectorIndex(ctrl),
		ingest: mocks.NewMockIngester(ctrl),
		chat:   mocks.NewMockChatModel(ctrl),
		dir:    t.TempDir(),
	}
	f.engine = NewEngine(f.index, f.ingest, f.chat, Settings{
		ShowSources:        showSources,
		RetrievalMinScore:  0.22,
		BackgroundDir:      f.dir,
		BackgroundFilename: "Curriculo.txt",
		BackgroundMaxChars: 1600,
	})
	return f
}

func (f *engineFixture) writeBackground(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "Curriculo.txt"), []byte(content), 0644))
}

func TestEngine_EmptyMessage(t *testing.T) {
	f := newEngineFixture(t, false)

	_, err := f.engine.Query(context.Background(), Request{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestEngine_AnswersWithSources(t *testing.T) {
	f := newEngineFixture(t, true)
	f.writeBackground(t, "\ufeffEngenheira de software.\r\n")

	f.index.EXPECT().Search(gomock.Any(), "Tell me about your work", 12).Return([]index.Hit{
		{Content: longContext, SourceName: "README.md", Distance: 0.25},
		{Content: "irrelevant", SourceName: "far.txt", Distance: 9},
	}, nil)

	var prompt string
	f.chat.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "I built data platforms.", nil
	})

	resp, err := f.engine.Query(context.Background(), Request{Message: "  Tell me about your work "})
	require.NoError(t, err)
	assert.Equal(t, "I built data platforms.", resp.Answer)

	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "README.md", resp.Sources[0].SourceName)
	assert.Equal(t, 0.8, resp.Sources[0].Score)
	assert.True(t, strings.HasSuffix(resp.Sources[0].Excerpt, "..."))
	assert.Equal(t, Source{SourceName: "Curriculo.txt", Score: 1.0, Excerpt: "Engenheira de software."}, resp.Sources[1])

	assert.Contains(t, prompt, "[1] (README.md)\n"+longContext)
	assert.Contains(t, prompt, "[FIXED_CV] (Curriculo.txt)\nEngenheira de software.")
	assert.Contains(t, prompt, "I could not find that information in the uploaded documents.")
	assert.Contains(t, prompt, "Question type: general/career")
	assert.NotContains(t, prompt, "far.txt")
}

func TestEngine_HidesSourcesByDefault(t *testing.T) {
	f := newEngineFixture(t, false)

	f.index.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]index.Hit{
		{Content: longContext, SourceName: "README.md", Distance: 0.25},
	}, nil)
	f.chat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("I built data platforms.", nil)

	resp, err := f.engine.Query(context.Background(), Request{Message: "Tell me about your work", TopK: 2})
	require.NoError(t, err)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
}

func TestEngine_NoContextReturnsCannedAnswer(t *testing.T) {
	f := newEngineFixture(t, true)

	f.index.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]index.Hit{
		{Content: "far away", SourceName: "notes.txt", Distance: 10},
	}, nil)

	resp, err := f.engine.Query(context.Background(), Request{Message: "Quais projetos você construiu?"})
	require.NoError(t, err)
	assert.Equal(t, NoReliableInfoMessage(LanguagePT), resp.Answer)
	assert.Empty(t, resp.Sources)
}

func TestEngine_GenerationFailureFallsBack(t *testing.T) {
	f := newEngineFixture(t, true)

	f.index.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]index.Hit{
		{Content: longContext, SourceName: "README.md", Distance: 0.25},
	}, nil)
	f.chat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("", errors.New("401 unauthorized"))

	resp, err := f.engine.Query(context.Background(), Request{Message: "Tell me about your work"})
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer(LanguageEN, true), resp.Answer)
	assert.Len(t, resp.Sources, 1, "sources still describe the assembled context")
}

func TestEngine_EmptyCompletionFallsBack(t *testing.T) {
	f := newEngineFixture(t, false)

	f.index.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]index.Hit{
		{Content: longContext, SourceName: "README.md", Distance: 0.25},
	}, nil)
	f.chat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("  ", nil)

	resp, err := f.engine.Query(context.Background(), Request{Message: "Fale sobre sua experiência"})
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer(LanguagePT, true), resp.Answer)
}

func TestEngine_RecoveryFailureIsReturned(t *testing.T) {
	f := newEngineFixture(t, false)

	f.index.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errDimension)
	f.ingest.EXPECT().Ingest(gomock.Any(), true).Return(indexer.Stats{}, errors.New("embedding API unavailable"))

	_, err := f.engine.Query(context.Background(), Request{Message: "What projects have you built?"})
	assert.ErrorIs(t, err, ErrIndexRecovery)
}

func TestEngine_ListQuestionRewritesToRequestedCount(t *testing.T) {
	f := newEngineFixture(t, false)

	f.index.EXPECT().Search(gomock.Any(), "Liste 3 projetos", 12).Return([]index.Hit{
		{Content: longContext, SourceName: "projects.md", Distance: 0.25},
	}, nil)
	gomock.InOrder(
		f.chat.EXPECT().Chat(gomock.Any(), promptContains("Tipo da pergunta: projetos")).Return("Fiz uma plataforma de dados.", nil),
		f.chat.EXPECT().Chat(gomock.Any(), promptContains("Entregue exatamente 3 itens numerados")).Return("1. Plataforma\n2. Pipelines", nil),
	)

	resp, err := f.engine.Query(context.Background(), Request{Message: "Liste 3 projetos"})
	require.NoError(t, err)
	assert.Equal(t, "1. Plataforma\n2. Pipelines", resp.Answer)
}

func TestEngine_BlankListRewriteFallsBack(t *testing.T) {
	f := newEngineFixture(t, false)

	f.index.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]index.Hit{
		{Content: longContext, SourceName: "projects.md", Distance: 0.25},
	}, nil)
	gomock.InOrder(
		f.chat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("Some prose answer.", nil),
		f.chat.EXPECT().Chat(gomock.Any(), promptContains("Restructure the answer below as a markdown list")).Return("", nil),
	)

	resp, err := f.engine.Query(context.Background(), Request{Message: "list your projects"})
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(resp.Answer))
	assert.Equal(t, fallbackAnswer(LanguageEN, true), resp.Answer)
}

// fixedEmbedder returns the same vector for every text.
type fixedEmbedder struct{}

func (fixedEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func TestEngine_EmptyCorpusEndToEnd(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.New(filepath.Join(tmp, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.Migrate(db))

	uploadsDir := filepath.Join(tmp, "uploads")
	require.NoError(t, os.MkdirAll(uploadsDir, 0755))

	ix := index.New(fixedEmbedder{}, vectorstore.NewMemoryStore(), storage.NewDocumentRepo(db), storage.NewChunkRepo(db), "empty")
	pipeline, err := indexer.NewPipeline(ix, uploadsDir, 900, 180, 120)
	require.NoError(t, err)

	chat := mocks.NewMockChatModel(gomock.NewController(t))
	engine := NewEngine(ix, pipeline, chat, Settings{
		ShowSources:        true,
		RetrievalMinScore:  0.22,
		BackgroundDir:      uploadsDir,
		BackgroundFilename: "Curriculo.txt",
		BackgroundMaxChars: 1600,
	})

	for _, tc := range []struct {
		question string
		lang     Language
	}{
		{"Quais projetos você construiu?", LanguagePT},
		{"What projects have you built?", LanguageEN},
	} {
		resp, err := engine.Query(context.Background(), Request{Message: tc.question})
		require.NoError(t, err)
		assert.Equal(t, NoReliableInfoMessage(tc.lang), resp.Answer)
		assert.NotNil(t, resp.Sources)
		assert.Empty(t, resp.Sources)
	}
}
