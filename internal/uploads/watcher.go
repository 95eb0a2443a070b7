package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"portfolio-rag/internal/contextutil"
)

// DefaultDebounce is how long the watcher waits for the directory to settle.
const DefaultDebounce = 2 * time.Second

// Watcher calls OnChange once the uploads directory has been quiet for Debounce
// after any create, write, remove or rename of a corpus file.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	OnChange func(ctx context.Context) error
}

// NewWatcher creates a watcher with DefaultDebounce.
func NewWatcher(dir string, onChange func(ctx context.Context) error) *Watcher {
	return &Watcher{Dir: dir, Debounce: DefaultDebounce, OnChange: onChange}
}

// Run watches until ctx is cancelled. OnChange errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}
	logger.InfoContext(ctx, "watching uploads", "dir", w.Dir, "debounce", w.Debounce)

	timer := time.NewTimer(w.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&relevant == 0 || !IsCorpusFile(event.Name) {
				continue
			}
			logger.DebugContext(ctx, "upload changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "watcher error", "error", err)

		case <-timer.C:
			if err := w.OnChange(ctx); err != nil {
				logger.ErrorContext(ctx, "ingestion after upload change failed", "error", err)
			}
		}
	}
}
