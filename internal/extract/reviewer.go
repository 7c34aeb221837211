package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ajitpratap0/openclaw-tagger/internal/llm"
	"github.com/ajitpratap0/openclaw-tagger/internal/metrics"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

const (
	// FeedbackUnavailable is the rejection feedback when the model call failed.
	FeedbackUnavailable = "Review service unavailable"

	// FeedbackAmbiguous is the rejection feedback for an answer that is
	// neither an approval nor a rejection.
	FeedbackAmbiguous = "Reviewer response was ambiguous; re-check categories, values and supporting content"

	// FeedbackUnspecified is used when a rejection carries no reason.
	FeedbackUnspecified = "Extraction rejected without a specific reason"
)

var (
	approvalPattern   = regexp.MustCompile(`(?i)\b(?:approved|accept(?:ed|s)?|correct)\b`)
	rejectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brejected\b`),
		regexp.MustCompile(`(?i)\bincorrect\b`),
		regexp.MustCompile(`(?i)\bwrong\b`),
	}
)

// Reviewer judges a writer batch with one model call.
type Reviewer struct {
	caller     llm.Caller
	pageBudget int
	logger     *slog.Logger
}

// NewReviewer creates a reviewer. A non-positive pageBudget disables truncation.
func NewReviewer(caller llm.Caller, pageBudget int, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{caller: caller, pageBudget: pageBudget, logger: logger}
}

// Review asks the model to approve or reject entities. Model failures
// yield a rejection with FeedbackUnavailable.
func (r *Reviewer) Review(ctx context.Context, text string, categories []models.Category, entities []models.CandidateEntity, writerReasoning string) models.ReviewVerdict {
	metrics.Inc(metrics.ReviewerCalls)
	page := fitPage(text, r.pageBudget, r.logger, "reviewer")
	prompt := buildReviewerPrompt(page, categories, entities, writerReasoning)

	raw, err := r.caller.Invoke(ctx, prompt)
	if err != nil {
		metrics.Inc(metrics.ReviewerFailures)
		r.logger.Warn("reviewer: model call failed, rejecting batch", "error", err)
		return models.ReviewVerdict{Approved: false, Feedback: FeedbackUnavailable}
	}

	v := ParseVerdict(raw)
	r.logger.Debug("reviewer: verdict parsed", "approved", v.Approved, "feedback", v.Feedback)
	return v
}

// ParseVerdict reads a reviewer answer. A leading APPROVED or REJECTED
// decides; otherwise approval keywords are looked for before rejection
// keywords. Keywords match whole words only, so "incorrect" never reads
// as "correct". Anything else is a rejection with FeedbackAmbiguous.
func ParseVerdict(raw string) models.ReviewVerdict {
	text := strings.TrimSpace(raw)
	head := strings.TrimLeft(text, "*#_`> \t\r\n")
	lower := strings.ToLower(head)

	switch {
	case strings.HasPrefix(lower, "approved"):
		return models.ReviewVerdict{Approved: true}
	case strings.HasPrefix(lower, "rejected"):
		return models.ReviewVerdict{Approved: false, Feedback: rejectionReason(head[len("rejected"):])}
	}

	if approvalPattern.MatchString(text) {
		return models.ReviewVerdict{Approved: true}
	}
	for _, re := range rejectionPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			return models.ReviewVerdict{Approved: false, Feedback: rejectionReason(text[loc[1]:])}
		}
	}
	return models.ReviewVerdict{Approved: false, Feedback: FeedbackAmbiguous}
}

// rejectionReason cleans the text that follows a rejection keyword.
func rejectionReason(rest string) string {
	reason := strings.TrimLeft(rest, "*_` \t")
	reason = strings.TrimPrefix(reason, ":")
	reason = strings.TrimSpace(strings.Trim(strings.TrimSpace(reason), "*_`"))
	reason = strings.TrimSpace(strings.TrimLeft(reason, ":-,;."))
	if reason == "" {
		return FeedbackUnspecified
	}
	return reason
}
