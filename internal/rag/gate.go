package rag

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"portfolio-rag/internal/contextutil"
)

// similarityThreshold is the ratio above which an answer counts as copied from the context.
const similarityThreshold = 0.82

var (
	listItemPattern = regexp.MustCompile(`(?m)^\s*(?:\d+\.\s+|[-*]\s+)`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	nonWordRunes    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// qualityGate runs the two post-generation checks. Each check rewrites at most once and the
// rewritten text is never checked again.
type qualityGate struct {
	chat ChatModel
}

// apply returns the answer after the similarity check and, for list questions, the list check.
// Any rewrite error is returned so the caller can fall back.
func (g qualityGate) apply(ctx context.Context, question, answer string, intent Intent, contexts []string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if sim := maxSimilarity(answer, contexts); sim > similarityThreshold {
		logger.InfoContext(ctx, "answer too close to context, paraphrasing", "similarity", sim)
		rewritten, err := g.chat.Chat(ctx, buildParaphrasePrompt(intent.Language, answer, contexts))
		if err != nil {
			return "", fmt.Errorf("paraphrase rewrite: %w", err)
		}
		if strings.TrimSpace(rewritten) == "" {
			return "", errors.New("paraphrase rewrite: empty completion")
		}
		rewritesTotal.WithLabelValues("similarity").Inc()
		answer = rewritten
	}

	if intent.ListIntent {
		items := countListItems(answer)
		if needsListRewrite(items, intent.RequestedCount) {
			logger.InfoContext(ctx, "answer does not have the requested list shape, rewriting",
				"items", items,
				"requested", intent.RequestedCount,
			)
			rewritten, err := g.chat.Chat(ctx, buildListPrompt(intent, question, answer, contexts))
			if err != nil {
				return "", fmt.Errorf("list rewrite: %w", err)
			}
			if strings.TrimSpace(rewritten) == "" {
				return "", errors.New("list rewrite: empty completion")
			}
			rewritesTotal.WithLabelValues("list").Inc()
			answer = rewritten
		}
	}

	return answer, nil
}

func needsListRewrite(items, requested int) bool {
	if items == 0 {
		return true
	}
	return requested > 0 && items != requested
}

// countListItems counts lines starting with "N. ", "- " or "* ".
func countListItems(text string) int {
	if text == "" {
		return 0
	}
	return len(listItemPattern.FindAllStringIndex(text, -1))
}

// normalizeForSimilarity lower-cases, collapses whitespace and drops punctuation.
func normalizeForSimilarity(text string) string {
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(text), " "))
	return nonWordRunes.ReplaceAllString(text, "")
}

// similarity is difflib's matching-blocks ratio computed over runes.
func similarity(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// maxSimilarity returns the highest similarity between answer and any context, after normalization.
func maxSimilarity(answer string, contexts []string) float64 {
	if answer == "" || len(contexts) == 0 {
		return 0
	}
	a := normalizeForSimilarity(answer)
	if a == "" {
		return 0
	}

	best := 0.0
	for _, c := range contexts {
		n := normalizeForSimilarity(c)
		if n == "" {
			continue
		}
		best = max(best, similarity(a, n))
	}
	return best
}
