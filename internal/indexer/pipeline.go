package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/index"
	"portfolio-rag/internal/storage"
	"portfolio-rag/internal/textnorm"
	"portfolio-rag/internal/uploads"
)

// DocumentIndex is the part of index.Index the pipeline writes to.
type DocumentIndex interface {
	Rebuild(ctx context.Context, docs []index.Document) (int, error)
	AddDocuments(ctx context.Context, docs []index.Document) (int, error)
	RemoveDocument(ctx context.Context, sourceName string) error
	Documents(ctx context.Context) ([]storage.DocumentRecord, error)
	Empty(ctx context.Context) (bool, error)
}

// Stats summarizes one ingestion run.
type Stats struct {
	Documents       int `json:"documents"`
	Chunks          int `json:"chunks"`
	SkippedTooSmall int `json:"skipped_too_small"`
	Unchanged       int `json:"unchanged"`
	Removed         int `json:"removed"`
}

// Pipeline reads the uploads directory, normalizes and chunks every file and writes
// the chunks to the index. Runs are serialized.
type Pipeline struct {
	index            DocumentIndex
	uploadsDir       string
	splitter         *Splitter
	markdown         *MarkdownRenderer
	minDocumentChars int

	mu sync.Mutex
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(ix DocumentIndex, uploadsDir string, chunkSize, chunkOverlap, minDocumentChars int) (*Pipeline, error) {
	splitter, err := NewSplitter(chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		index:            ix,
		uploadsDir:       uploadsDir,
		splitter:         splitter,
		markdown:         NewMarkdownRenderer(),
		minDocumentChars: minDocumentChars,
	}, nil
}

// Ingest indexes the uploads directory.
//
// With reset the index is rebuilt from scratch. Without it, documents whose content
// hash is unchanged are skipped, changed ones are replaced and vanished ones removed;
// an empty index counts as holding nothing, so everything is added.
// When the directory holds no usable document the index is left untouched.
func (p *Pipeline) Ingest(ctx context.Context, reset bool) (Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	logger := contextutil.LoggerFromContext(ctx)

	files, err := uploads.Scan(ctx, p.uploadsDir)
	if err != nil {
		return Stats{}, err
	}
	if len(files) == 0 {
		logger.InfoContext(ctx, "no uploads to ingest", "dir", p.uploadsDir)
		return Stats{}, nil
	}

	docs, skipped, err := p.load(ctx, files)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{SkippedTooSmall: skipped}
	if len(docs) == 0 {
		logger.InfoContext(ctx, "no document large enough to ingest", "skipped_too_small", skipped)
		return stats, nil
	}

	if reset {
		n, err := p.index.Rebuild(ctx, docs)
		if err != nil {
			return stats, fmt.Errorf("failed to rebuild index: %w", err)
		}
		stats.Documents = len(docs)
		stats.Chunks = n
		logger.InfoContext(ctx, "ingestion completed", "reset", true, "documents", stats.Documents, "chunks", stats.Chunks, "skipped_too_small", skipped)
		return stats, nil
	}

	known := map[string]string{}
	empty, err := p.index.Empty(ctx)
	if err != nil {
		return stats, err
	}
	indexed, err := p.index.Documents(ctx)
	if err != nil {
		return stats, err
	}
	if !empty {
		for _, d := range indexed {
			known[d.SourceName] = d.Hash
		}
	}

	current := make(map[string]bool, len(docs))
	var changed []index.Document
	for _, d := range docs {
		current[d.SourceName] = true
		if hash, ok := known[d.SourceName]; ok && hash == d.Hash {
			stats.Unchanged++
			continue
		}
		changed = append(changed, d)
	}

	for _, d := range indexed {
		if current[d.SourceName] {
			continue
		}
		if err := p.index.RemoveDocument(ctx, d.SourceName); err != nil {
			return stats, fmt.Errorf("failed to remove %s: %w", d.SourceName, err)
		}
		stats.Removed++
	}

	n, err := p.index.AddDocuments(ctx, changed)
	if err != nil {
		return stats, fmt.Errorf("failed to add documents: %w", err)
	}
	stats.Documents = len(changed)
	stats.Chunks = n

	logger.InfoContext(ctx, "ingestion completed",
		"reset", false,
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"unchanged", stats.Unchanged,
		"removed", stats.Removed,
		"skipped_too_small", skipped,
	)
	return stats, nil
}

// load reads and chunks files. Unreadable files are logged and skipped.
func (p *Pipeline) load(ctx context.Context, files []uploads.File) ([]index.Document, int, error) {
	logger := contextutil.LoggerFromContext(ctx)
	var docs []index.Document
	skipped := 0

	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}

		text, err := textnorm.ReadFile(f.AbsPath)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read upload", "file", f.Name, "error", err)
			continue
		}
		if isMarkdown(f.Name) {
			text = textnorm.Normalize(p.markdown.Render([]byte(text)))
		}
		if text == "" {
			continue
		}
		chars := utf8.RuneCountInString(text)
		if chars < p.minDocumentChars {
			logger.InfoContext(ctx, "skipping small document", "file", f.Name, "chars", chars, "min", p.minDocumentChars)
			skipped++
			continue
		}

		docs = append(docs, index.Document{
			SourceName: f.Name,
			SourcePath: f.AbsPath,
			Hash:       fmt.Sprintf("%x", sha256.Sum256([]byte(text))),
			Chars:      chars,
			Chunks:     p.splitter.Split(text),
		})
	}
	return docs, skipped, nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
