package extract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/openclaw-tagger/internal/llm"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

var testCategories = []models.Category{
	{ID: "c1", Name: "Period", Description: "Historical time period", Keywords: []string{"era", "decade"}, DataType: models.DataTypeDate},
	{ID: "c2", Name: "Person", DataType: models.DataTypeText},
}

// recordingCaller returns canned answers in order and records each prompt.
type recordingCaller struct {
	answers []string
	err     error
	prompts []string
}

func (r *recordingCaller) Invoke(_ context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if r.err != nil {
		return "", r.err
	}
	if len(r.answers) == 0 {
		return "", llm.ErrEmptyResponse
	}
	a := r.answers[0]
	r.answers = r.answers[1:]
	return a, nil
}

func TestWriter_ExtractBuildsPrompt(t *testing.T) {
	caller := &recordingCaller{answers: []string{`{"entities": [{"category": "Period", "value": "1920s"}], "reasoning": "jazz age"}`}}
	w := NewWriter(caller, 0, nil)

	out := w.Extract(context.Background(), "In the 1920s <b>jazz</b> spread.", testCategories, "")
	require.Len(t, out.Entities, 1)
	assert.Equal(t, "jazz age", out.Reasoning)

	require.Len(t, caller.prompts, 1)
	prompt := caller.prompts[0]
	assert.Contains(t, prompt, "- Period (date): Historical time period [keywords: era, decade]")
	assert.Contains(t, prompt, "- Person (text)")
	assert.Contains(t, prompt, "&lt;b&gt;jazz&lt;/b&gt;")
	assert.NotContains(t, prompt, "<b>")
	assert.NotContains(t, prompt, "<feedback>")
}

func TestWriter_FeedbackBlockOnlyWhenPresent(t *testing.T) {
	caller := &recordingCaller{answers: []string{"[]", "[]"}}
	w := NewWriter(caller, 0, nil)

	w.Extract(context.Background(), "text", testCategories, "   ")
	w.Extract(context.Background(), "text", testCategories, "Missing the 1930s")

	require.Len(t, caller.prompts, 2)
	assert.NotContains(t, caller.prompts[0], "<feedback>")
	assert.Contains(t, caller.prompts[1], "<feedback>\nMissing the 1930s\n</feedback>")
}

func TestWriter_TruncatesPageText(t *testing.T) {
	caller := &recordingCaller{answers: []string{"[]"}}
	w := NewWriter(caller, 10, nil)

	page := strings.Repeat("word ", 500) + "TAILMARKER"
	w.Extract(context.Background(), page, testCategories, "")
	require.Len(t, caller.prompts, 1)
	assert.NotContains(t, caller.prompts[0], "TAILMARKER")
}

func TestWriter_LogsPageTruncation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w := NewWriter(&recordingCaller{answers: []string{"[]", "[]"}}, 10, logger)
	w.Extract(context.Background(), "short page", testCategories, "")
	assert.NotContains(t, buf.String(), "page truncated")

	w.Extract(context.Background(), strings.Repeat("word ", 500)+"TAILMARKER", testCategories, "")
	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "writer: page truncated to token budget")
	assert.Contains(t, out, "budget=10")
}

func TestWriter_EscapesPageText(t *testing.T) {
	caller := &recordingCaller{answers: []string{"[]"}}
	w := NewWriter(caller, 0, nil)

	w.Extract(context.Background(), "Fish & chips <b>1920s</b>", testCategories, "")
	require.Len(t, caller.prompts, 1)
	assert.Contains(t, caller.prompts[0], "Fish &amp; chips &lt;b&gt;1920s&lt;/b&gt;")
	assert.NotContains(t, caller.prompts[0], "<b>")
}

func TestWriter_TransportFailure(t *testing.T) {
	w := NewWriter(&recordingCaller{err: errors.New("connection refused")}, 0, nil)

	out := w.Extract(context.Background(), "text", testCategories, "")
	assert.NotNil(t, out.Entities)
	assert.Empty(t, out.Entities)
	assert.Equal(t, ReasonCallFailed, out.Reasoning)
}

func TestWriter_UnparsableAnswer(t *testing.T) {
	w := NewWriter(&recordingCaller{answers: []string{"I am not sure what you mean."}}, 0, nil)

	out := w.Extract(context.Background(), "text", testCategories, "")
	assert.Empty(t, out.Entities)
	assert.Equal(t, ReasonNoJSON, out.Reasoning)
}

func TestReviewer_PromptCarriesCandidates(t *testing.T) {
	caller := &recordingCaller{answers: []string{"APPROVED"}}
	r := NewReviewer(caller, 0, nil)

	entities := []models.CandidateEntity{{Category: "Person", Value: "Ada Lovelace", Confidence: 0.9}}
	v := r.Review(context.Background(), "Ada wrote notes.", testCategories, entities, "named in text")
	assert.True(t, v.Approved)

	require.Len(t, caller.prompts, 1)
	prompt := caller.prompts[0]
	assert.Contains(t, prompt, "&#34;value&#34;: &#34;Ada Lovelace&#34;")
	assert.Contains(t, prompt, "<reasoning>\nnamed in text\n</reasoning>")
	assert.Contains(t, prompt, "- Period (date)")
}

func TestReviewer_TransportFailure(t *testing.T) {
	r := NewReviewer(&recordingCaller{err: context.DeadlineExceeded}, 0, nil)

	v := r.Review(context.Background(), "text", testCategories, nil, "")
	assert.False(t, v.Approved)
	assert.Equal(t, FeedbackUnavailable, v.Feedback)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		approved bool
		feedback string
	}{
		{"plain approval", "APPROVED", true, ""},
		{"approval lowercase with trailing text", "  approved - looks good", true, ""},
		{"markdown approval", "**APPROVED**", true, ""},
		{"prefixed rejection", "REJECTED: Missing the 1930s", false, "Missing the 1930s"},
		{"rejection lower no colon", "rejected the dates are off", false, "the dates are off"},
		{"markdown rejection", "**REJECTED**: wrong category for Paris", false, "wrong category for Paris"},
		{"bare rejection", "REJECTED", false, FeedbackUnspecified},
		{"incorrect is not correct", "The value for Period is incorrect: use 1920s", false, "use 1920s"},
		{"wrong keyword", "Entity two is wrong, it is a city", false, "it is a city"},
		{"accept keyword", "I accept this extraction.", true, ""},
		{"correct keyword", "Everything here is correct.", true, ""},
		{"approval wins over later wrong", "The extraction is correct; nothing is wrong with it.", true, ""},
		{"accepted with wrong mentioned", "Accepted. No wrong categories found.", true, ""},
		{"wrong inside a word", "Everything is fine, no wrongdoing here.", false, FeedbackAmbiguous},
		{"ambiguous", "Hmm, let me think about it.", false, FeedbackAmbiguous},
		{"empty", "", false, FeedbackAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseVerdict(tt.raw)
			assert.Equal(t, tt.approved, v.Approved)
			assert.Equal(t, tt.feedback, v.Feedback)
		})
	}
}

func TestWriter_RefusalYieldsEmptyResult(t *testing.T) {
	w := NewWriter(&recordingCaller{answers: []string{"I cannot help with that"}}, 0, nil)

	out := w.Extract(context.Background(), "text", testCategories, "")
	assert.Equal(t, Extraction{Entities: []models.CandidateEntity{}, Reasoning: ReasonNoJSON}, out)
}
