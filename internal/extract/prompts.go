package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/pkg/tokenizer"
	"github.com/ajitpratap0/openclaw-tagger/pkg/xmlutil"
)

// WriterSystemPrompt is the system prompt for the extraction model.
const WriterSystemPrompt = "You are a precise entity extraction system for book pages. Output only valid JSON."

// ReviewerSystemPrompt is the system prompt for the review model.
const ReviewerSystemPrompt = "You are a strict reviewer of extracted entities. Answer APPROVED or REJECTED: <reason>."

// writerPromptTemplate takes the category block, the feedback block and
// the page text. Page text is injected via an XML tag to prevent prompt
// injection.
const writerPromptTemplate = `You extract entities from one page of a book.

Use only these categories:
%s
%s
Rules:
- category must be one of the category names above.
- value is the entity itself, normalized for its data type (dates as years, ranges or decades; numbers with units).
- content is the short sentence or phrase from the page that supports the value.
- confidence is a number between 0 and 1.

%s

Respond with JSON only:
{"entities": [{"category": "...", "value": "...", "content": "...", "confidence": 0.9}], "reasoning": "..."}`

const feedbackTemplate = `
A reviewer rejected your previous attempt. Correct these issues:
%s
`

// reviewerPromptTemplate takes the category block, the page text, the
// candidate entities as JSON and the writer's reasoning.
const reviewerPromptTemplate = `You review entities extracted from one page of a book.

Categories:
%s

%s

%s

%s

Check that every entity belongs to its category, is supported by the page text, and that no important entity is missing.
Answer with exactly one line: APPROVED if the extraction is correct, otherwise REJECTED: <what must be fixed>.`

// formatCategories renders one line per category with its data type,
// description and keywords.
func formatCategories(categories []models.Category) string {
	var b strings.Builder
	for _, c := range categories {
		dt := c.DataType
		if dt == "" {
			dt = models.DataTypeText
		}
		fmt.Fprintf(&b, "- %s (%s)", xmlutil.Escape(c.Name), dt)
		if c.Description != "" {
			fmt.Fprintf(&b, ": %s", xmlutil.Escape(c.Description))
		}
		if len(c.Keywords) > 0 {
			fmt.Fprintf(&b, " [keywords: %s]", xmlutil.Escape(strings.Join(c.Keywords, ", ")))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// fitPage cuts text to budget tokens and logs at Debug when it had to.
func fitPage(text string, budget int, logger *slog.Logger, role string) string {
	page := tokenizer.TruncateToTokenBudget(text, budget)
	if len(page) < len(text) {
		logger.Debug(role+": page truncated to token budget",
			"budget", budget,
			"estimated_tokens", tokenizer.EstimateTokens(text),
			"kept_bytes", len(page),
			"original_bytes", len(text),
		)
	}
	return page
}

// buildWriterPrompt embeds page, already fitted to the token budget, and
// escapes it for the XML wrapper.
func buildWriterPrompt(page string, categories []models.Category, feedback string) string {
	feedbackBlock := ""
	if strings.TrimSpace(feedback) != "" {
		feedbackBlock = fmt.Sprintf(feedbackTemplate, xmlutil.Wrap("feedback", strings.TrimSpace(feedback)))
	}
	return fmt.Sprintf(writerPromptTemplate,
		formatCategories(categories),
		feedbackBlock,
		xmlutil.Wrap("page", page),
	)
}

func buildReviewerPrompt(page string, categories []models.Category, entities []models.CandidateEntity, reasoning string) string {
	serialized, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		serialized = []byte("[]")
	}
	return fmt.Sprintf(reviewerPromptTemplate,
		formatCategories(categories),
		xmlutil.Wrap("page", page),
		xmlutil.Wrap("entities", string(serialized)),
		xmlutil.Wrap("reasoning", reasoning),
	)
}
