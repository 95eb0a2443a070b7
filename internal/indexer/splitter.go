package indexer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order: paragraphs, lines, sentences, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into chunks of at most Size runes, carrying up to Overlap runes
// of the previous chunk into the next one. It splits on the coarsest separator present
// and recurses into pieces that are still too large.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

// NewSplitter validates the sizes and returns a Splitter using DefaultSeparators.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0")
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be >= 0 and smaller than chunk size (%d)", overlap, size)
	}
	return &Splitter{Size: size, Overlap: overlap, Separators: DefaultSeparators}, nil
}

// Split returns the chunks of text, whitespace-trimmed, empty chunks dropped.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := ""
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var chunks, pending []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.Size {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending)...)
			pending = nil
		}
		if len(finer) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, finer)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending)...)
	}
	return chunks
}

// merge packs consecutive pieces into chunks no longer than Size, starting each new
// chunk with the tail of the previous one while that tail fits within Overlap.
func (s *Splitter) merge(pieces []string) []string {
	var chunks, current []string
	total := 0

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.Size && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.Overlap || (total+n > s.Size && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitKeepingSeparator splits text on sep and glues each separator to the start of the
// piece that follows it. An empty separator splits into single runes.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
