package rag

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/textnorm"
)

// backgroundLoader reads the fixed background document (the résumé) on every query,
// so edits to the file show up without re-ingesting.
type backgroundLoader struct {
	dir      string
	filename string
	maxChars int
}

// load returns the background chunk, or false when the file is missing, unreadable or empty.
func (b backgroundLoader) load(ctx context.Context) (ContextChunk, bool) {
	if b.filename == "" {
		return ContextChunk{}, false
	}

	text, err := textnorm.ReadFile(filepath.Join(b.dir, b.filename))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to read background document", "file", b.filename, "error", err)
		}
		return ContextChunk{}, false
	}

	text = strings.TrimSpace(textnorm.Truncate(text, b.maxChars))
	if text == "" {
		return ContextChunk{}, false
	}
	return ContextChunk{
		Content:    text,
		SourceName: b.filename,
		Score:      1.0,
		Background: true,
	}, true
}
