package tokencount

import (
	"strings"
	"unicode/utf8"

	"github.com/yanqian/snow-agent/internal/domain/chat"
)

// HeuristicCounter estimates tokens without any encoding data. It is used
// when the tiktoken encoding cannot be loaded, and in tests.
type HeuristicCounter struct{}

// NewHeuristicCounter constructs the estimator.
func NewHeuristicCounter() *HeuristicCounter {
	return &HeuristicCounter{}
}

// Count over-estimates slightly: roughly one token per four runes and never
// below the word count.
func (HeuristicCounter) Count(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	tokens := utf8.RuneCountInString(trimmed) / 4
	if tokens < words {
		tokens = words
	}
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

var _ chat.TokenCounter = (*HeuristicCounter)(nil)
