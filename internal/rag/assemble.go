package rag

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const excerptChars = 320

// assembleContext filters chunks below minScore, moves project-like sources first for
// project questions and keeps at most topK. Relevance order is otherwise preserved.
func assembleContext(chunks []RetrievedChunk, intent Intent, topK int, minScore float64) []ContextChunk {
	kept := make([]RetrievedChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Score() >= minScore {
			kept = append(kept, c)
		}
	}

	if intent.ProjectIntent {
		sort.SliceStable(kept, func(i, j int) bool {
			pi, pj := isProjectSource(kept[i].SourceName), isProjectSource(kept[j].SourceName)
			if pi != pj {
				return pi
			}
			return kept[i].Distance < kept[j].Distance
		})
	}

	if len(kept) > topK {
		kept = kept[:topK]
	}

	out := make([]ContextChunk, len(kept))
	for i, c := range kept {
		out[i] = ContextChunk{
			Content:    c.Content,
			SourceName: c.SourceName,
			Score:      c.Score(),
		}
	}
	return out
}

// buildSources describes every context chunk, background included.
func buildSources(chunks []ContextChunk) []Source {
	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		sources[i] = Source{
			SourceName: c.SourceName,
			Score:      roundScore(c.Score),
			Excerpt:    excerpt(c.Content),
		}
	}
	return sources
}

func contextTexts(chunks []ContextChunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	return texts
}

// excerpt returns the first 320 characters of content, trimmed, with "..." when content is longer.
func excerpt(content string) string {
	if utf8.RuneCountInString(content) <= excerptChars {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(string([]rune(content)[:excerptChars])) + "..."
}

func roundScore(score float64) float64 {
	return math.Round(score*1e4) / 1e4
}
