// Package uploads lists and watches the directory holding the corpus files.
package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is a corpus file found in the uploads directory.
type File struct {
	Name    string // Base name, used as the source name
	AbsPath string
	Size    int64
}

// Scan lists the regular files directly inside dir, sorted by name.
// Hidden files such as .gitkeep and subdirectories are skipped.
func Scan(ctx context.Context, dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read uploads dir %s: %w", dir, err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads dir %s: %w", dir, err)
	}

	var files []File
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if entry.IsDir() || !IsCorpusFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, File{
			Name:    entry.Name(),
			AbsPath: filepath.Join(absDir, entry.Name()),
			Size:    info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// IsCorpusFile reports whether a file name should be ingested.
func IsCorpusFile(name string) bool {
	name = filepath.Base(name)
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	// editor swap and backup files
	return !strings.HasSuffix(name, "~") && !strings.HasSuffix(name, ".swp") && !strings.HasSuffix(name, ".tmp")
}
