// Package tokenizer estimates token counts so prompts stay inside a model's
// context budget.
package tokenizer

import (
	"strings"
)

// EstimateTokens provides a rough token count estimate.
// Uses the heuristic of ~4 characters per token for English text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	chars := len(text)

	// Heuristic: average of word-based and char-based estimates
	wordEstimate := int(float64(words) * 1.3) // ~1.3 tokens per word
	charEstimate := chars / 4                 // ~4 chars per token

	return (wordEstimate + charEstimate) / 2
}

// TruncateToTokenBudget truncates text to approximately fit within a token
// budget, cutting at a word boundary when one is close. A non-positive
// budget means unlimited.
func TruncateToTokenBudget(text string, budget int) string {
	if budget <= 0 {
		return text
	}

	if EstimateTokens(text) <= budget {
		return text
	}

	// Approximate: 4 chars per token
	maxChars := budget * 4
	if maxChars >= len(text) {
		return text
	}

	truncated := text[:maxChars]
	// Do not split a multi-byte rune.
	for len(truncated) > 0 && !isRuneStart(text[len(truncated)]) {
		truncated = truncated[:len(truncated)-1]
	}
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxChars/2 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
