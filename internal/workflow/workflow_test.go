package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/openclaw-tagger/internal/extract"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

var categories = []models.Category{{ID: "c1", Name: "Person", DataType: models.DataTypeText}}

// scriptedWriter returns one extraction per call; the last one repeats.
type scriptedWriter struct {
	outputs   []extract.Extraction
	feedbacks []string
	calls     int
}

func (w *scriptedWriter) Extract(_ context.Context, _ string, _ []models.Category, previousFeedback string) extract.Extraction {
	w.feedbacks = append(w.feedbacks, previousFeedback)
	idx := w.calls
	if idx >= len(w.outputs) {
		idx = len(w.outputs) - 1
	}
	w.calls++
	return w.outputs[idx]
}

// scriptedReviewer returns one verdict per call; the last one repeats.
type scriptedReviewer struct {
	verdicts []models.ReviewVerdict
	calls    int
	// writerCallsSeen records how many writer calls had happened when
	// each review started.
	writerCallsSeen []int
	writer          *scriptedWriter
}

func (r *scriptedReviewer) Review(_ context.Context, _ string, _ []models.Category, _ []models.CandidateEntity, _ string) models.ReviewVerdict {
	if r.writer != nil {
		r.writerCallsSeen = append(r.writerCallsSeen, r.writer.calls)
	}
	idx := r.calls
	if idx >= len(r.verdicts) {
		idx = len(r.verdicts) - 1
	}
	r.calls++
	return r.verdicts[idx]
}

func batch(values ...string) extract.Extraction {
	out := extract.Extraction{Reasoning: "found"}
	for _, v := range values {
		out.Entities = append(out.Entities, models.CandidateEntity{Category: "Person", Value: v, Confidence: 0.9})
	}
	return out
}

func reject(fb string) models.ReviewVerdict { return models.ReviewVerdict{Approved: false, Feedback: fb} }

var approve = models.ReviewVerdict{Approved: true}

func TestProcessEntities_ApprovedFirstTry(t *testing.T) {
	w := &scriptedWriter{outputs: []extract.Extraction{batch("Ada")}}
	r := &scriptedReviewer{verdicts: []models.ReviewVerdict{approve}}

	res := New(w, r, 3, nil).ProcessEntities(context.Background(), "page", categories)

	assert.Equal(t, 1, w.calls)
	assert.Equal(t, 1, r.calls)
	assert.True(t, res.FinalApproval)
	assert.Equal(t, 0, res.TotalRetries)
	assert.Empty(t, res.FeedbackHistory)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, "Ada", res.Entities[0].Value)
}

func TestProcessEntities_AllRejectedExhausts(t *testing.T) {
	for _, maxRetries := range []int{0, 1, 2, 3, 5} {
		t.Run(fmt.Sprintf("max=%d", maxRetries), func(t *testing.T) {
			w := &scriptedWriter{outputs: []extract.Extraction{batch("a"), batch("b"), batch("c"), batch("d"), batch("e"), batch("final")}}
			r := &scriptedReviewer{verdicts: []models.ReviewVerdict{reject("no")}}

			res := New(w, r, maxRetries, nil).ProcessEntities(context.Background(), "page", categories)

			assert.LessOrEqual(t, w.calls, maxRetries+1)
			assert.Equal(t, maxRetries+1, w.calls)
			assert.Equal(t, maxRetries, r.calls)
			assert.False(t, res.FinalApproval)
			assert.Equal(t, maxRetries, res.TotalRetries)
			require.NotEmpty(t, res.Entities)
			assert.Equal(t, w.outputs[maxRetries].Entities, res.Entities)
		})
	}
}

func TestProcessEntities_ApprovalAfterRetries(t *testing.T) {
	w := &scriptedWriter{outputs: []extract.Extraction{batch("a"), batch("b"), batch("c")}}
	r := &scriptedReviewer{verdicts: []models.ReviewVerdict{reject("first"), reject("second"), approve}}

	res := New(w, r, 3, nil).ProcessEntities(context.Background(), "page", categories)

	assert.True(t, res.FinalApproval)
	assert.Equal(t, 2, res.TotalRetries)
	assert.Equal(t, []string{"first", "second"}, res.FeedbackHistory)
	assert.Equal(t, []string{"", "first", "second"}, w.feedbacks)
	assert.Equal(t, "c", res.Entities[0].Value)
}

func TestProcessEntities_EmptyWriterSkipsReviewer(t *testing.T) {
	w := &scriptedWriter{outputs: []extract.Extraction{
		{Entities: []models.CandidateEntity{}, Reasoning: extract.ReasonNoJSON},
		batch("a"),
	}}
	r := &scriptedReviewer{verdicts: []models.ReviewVerdict{approve}}

	res := New(w, r, 3, nil).ProcessEntities(context.Background(), "page", categories)

	assert.Equal(t, 2, w.calls)
	assert.Equal(t, 1, r.calls)
	assert.True(t, res.FinalApproval)
	assert.Equal(t, 1, res.TotalRetries)
	assert.Empty(t, res.FeedbackHistory)
}

func TestProcessEntities_AlwaysEmptyExhausts(t *testing.T) {
	w := &scriptedWriter{outputs: []extract.Extraction{{Reasoning: extract.ReasonCallFailed}}}
	r := &scriptedReviewer{verdicts: []models.ReviewVerdict{approve}}

	res := New(w, r, 2, nil).ProcessEntities(context.Background(), "page", categories)

	assert.Equal(t, 3, w.calls)
	assert.Equal(t, 0, r.calls)
	assert.False(t, res.FinalApproval)
	assert.Equal(t, 2, res.TotalRetries)
	assert.NotNil(t, res.Entities)
	assert.Empty(t, res.Entities)
}

func TestProcessEntities_DuplicateFeedbackCollapsed(t *testing.T) {
	w := &scriptedWriter{outputs: []extract.Extraction{batch("a")}}
	r := &scriptedReviewer{verdicts: []models.ReviewVerdict{reject("same"), reject("same"), reject("other")}}

	res := New(w, r, 3, nil).ProcessEntities(context.Background(), "page", categories)

	assert.Equal(t, []string{"same", "other"}, res.FeedbackHistory)
	// The final unreviewed attempt sees the last feedback.
	assert.Equal(t, "other", w.feedbacks[len(w.feedbacks)-1])
}

func TestNew_DefaultMaxRetries(t *testing.T) {
	wf := New(&scriptedWriter{}, &scriptedReviewer{}, -1, nil)
	assert.Equal(t, DefaultMaxRetries, wf.MaxRetries())
}

func TestRun_StepsAreSequential(t *testing.T) {
	w := &scriptedWriter{outputs: []extract.Extraction{batch("a"), batch("b")}}
	r := &scriptedReviewer{verdicts: []models.ReviewVerdict{reject("fix"), approve}, writer: w}

	run := New(w, r, 3, nil).Start("page", categories)
	assert.Equal(t, Running, run.State())

	step, ok := run.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, 0, step.Iteration)
	assert.Equal(t, Running, step.State)
	require.NotNil(t, step.Verdict)
	assert.False(t, step.Verdict.Approved)

	step, ok = run.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, step.Iteration)
	assert.Equal(t, Approved, step.State)
	assert.True(t, run.Done())

	_, ok = run.Next(context.Background())
	assert.False(t, ok)

	// Each review ran only after its writer call.
	assert.Equal(t, []int{1, 2}, r.writerCallsSeen)
}

func TestRun_ExhaustedStepHasNoVerdict(t *testing.T) {
	w := &scriptedWriter{outputs: []extract.Extraction{batch("a")}}
	r := &scriptedReviewer{verdicts: []models.ReviewVerdict{reject("no")}}

	run := New(w, r, 1, nil).Start("page", categories)
	_, _ = run.Next(context.Background())
	step, ok := run.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, Exhausted, step.State)
	assert.Nil(t, step.Verdict)
	assert.Equal(t, "exhausted", step.State.String())
}
