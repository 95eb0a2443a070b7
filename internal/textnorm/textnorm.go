// Package textnorm decodes and normalizes corpus text so that the same words
// always produce the same bytes, whatever editor or exporter produced the file.
package textnorm

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var (
	// A base letter separated from its combining mark by whitespace, as produced by some PDF exports.
	detachedMark  = regexp.MustCompile(`([A-Za-zÀ-ÿ])\s+([\x{0300}-\x{036f}])`)
	crlf          = regexp.MustCompile(`\r\n?`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

// ReadFile reads path as UTF-8, falling back to Latin-1 when the bytes are not valid UTF-8,
// and returns the normalized text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, err := Decode(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return Normalize(text), nil
}

// Decode converts raw bytes to a string, treating invalid UTF-8 as Latin-1.
func Decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Normalize strips the BOM, reattaches detached combining marks, applies NFKC,
// unifies line endings, collapses runs of blank lines and trims.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\ufeff", "")
	text = detachedMark.ReplaceAllString(text, "$1$2")
	text = norm.NFKC.String(text)
	text = crlf.ReplaceAllString(text, "\n")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Truncate returns at most maxRunes runes of text.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes])
}
