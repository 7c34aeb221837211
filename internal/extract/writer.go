// Package extract implements the two model roles of the tagging workflow:
// the writer, which pulls categorized entities out of a page, and the
// reviewer, which approves or rejects the writer's batch.
package extract

import (
	"context"
	"log/slog"

	"github.com/ajitpratap0/openclaw-tagger/internal/llm"
	"github.com/ajitpratap0/openclaw-tagger/internal/metrics"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// DefaultPageTokenBudget bounds how much page text is embedded in a prompt.
const DefaultPageTokenBudget = 6000

// Writer extracts candidate entities from page text with one model call.
type Writer struct {
	caller     llm.Caller
	pageBudget int
	logger     *slog.Logger
}

// NewWriter creates a writer. A non-positive pageBudget disables truncation.
func NewWriter(caller llm.Caller, pageBudget int, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{caller: caller, pageBudget: pageBudget, logger: logger}
}

// Extract asks the model for entities in text. previousFeedback, when
// non-empty, is the reviewer's last rejection reason. Extract never
// returns an error: model failures become an empty Extraction with
// ReasonCallFailed.
func (w *Writer) Extract(ctx context.Context, text string, categories []models.Category, previousFeedback string) Extraction {
	metrics.Inc(metrics.WriterCalls)
	page := fitPage(text, w.pageBudget, w.logger, "writer")
	prompt := buildWriterPrompt(page, categories, previousFeedback)

	raw, err := w.caller.Invoke(ctx, prompt)
	if err != nil {
		metrics.Inc(metrics.WriterFailures)
		w.logger.Warn("writer: model call failed, returning empty extraction", "error", err)
		return Extraction{Entities: []models.CandidateEntity{}, Reasoning: ReasonCallFailed}
	}

	out := ParseExtraction(raw)
	if out.Reasoning == ReasonNoJSON {
		w.logger.Warn("writer: no JSON in model response", "response_len", len(raw))
	}
	for _, r := range out.Rejected {
		w.logger.Debug("writer: dropped malformed entity", "index", r.Index, "reason", r.Reason)
	}
	w.logger.Debug("writer: extraction parsed", "entities", len(out.Entities), "rejected", len(out.Rejected))
	return out
}
