package textnorm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips bom", "\ufeffOl\u00e1", "Ol\u00e1"},
		{"composes combining mark", "Jose\u0301", "Jos\u00e9"},
		{"reattaches mark after whitespace", "Jose \u0301 Silva", "Jos\u00e9 Silva"},
		{"crlf to lf", "a\r\nb\rc", "a\nb\nc"},
		{"collapses blank lines", "a\n\n\n\nb", "a\n\nb"},
		{"nfkc folds compatibility forms", "\ufb01le", "file"},
		{"trims", "  \n text \n ", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecode_Latin1Fallback(t *testing.T) {
	// "Currículo" encoded as ISO-8859-1
	data := []byte{'C', 'u', 'r', 'r', 0xED, 'c', 'u', 'l', 'o'}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != "Currículo" {
		t.Errorf("Decode() = %q, want %q", got, "Currículo")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(path, []byte("\ufeffLinha 1\r\n\r\n\r\n\r\nLinha 2\r\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got != "Linha 1\n\nLinha 2" {
		t.Errorf("ReadFile() = %q", got)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("ação", 2); got != "aç" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate() = %q", got)
	}
}
