// Package workflow drives the bounded writer/reviewer retry loop for one
// page of text.
package workflow

import (
	"context"
	"log/slog"

	"github.com/ajitpratap0/openclaw-tagger/internal/extract"
	"github.com/ajitpratap0/openclaw-tagger/internal/metrics"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// DefaultMaxRetries bounds the number of reviewed writer attempts.
const DefaultMaxRetries = 3

// Extractor is the writer role.
type Extractor interface {
	Extract(ctx context.Context, text string, categories []models.Category, previousFeedback string) extract.Extraction
}

// Reviewer is the reviewer role.
type Reviewer interface {
	Review(ctx context.Context, text string, categories []models.Category, entities []models.CandidateEntity, writerReasoning string) models.ReviewVerdict
}

// State is the position of a run in the retry state machine.
type State int

const (
	// Running means another writer iteration is due.
	Running State = iota
	// Approved means the reviewer accepted a batch.
	Approved
	// Exhausted means the retry ceiling was hit and the final unreviewed
	// writer attempt has been made.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Approved:
		return "approved"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Step records one transition of a run.
type Step struct {
	Iteration  int
	Extraction extract.Extraction
	// Verdict is nil when the reviewer was not called: the writer found
	// nothing, or this is the final unreviewed attempt.
	Verdict *models.ReviewVerdict
	State   State
}

// Workflow wires a writer and a reviewer under a retry ceiling.
type Workflow struct {
	writer     Extractor
	reviewer   Reviewer
	maxRetries int
	logger     *slog.Logger
}

// New creates a workflow. A negative maxRetries selects DefaultMaxRetries;
// zero means the single unreviewed writer attempt only.
func New(writer Extractor, reviewer Reviewer, maxRetries int, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Workflow{writer: writer, reviewer: reviewer, maxRetries: maxRetries, logger: logger}
}

// MaxRetries returns the retry ceiling.
func (w *Workflow) MaxRetries() int { return w.maxRetries }

// Run holds the state of one workflow invocation. It is not safe for
// concurrent use.
type Run struct {
	wf         *Workflow
	text       string
	categories []models.Category

	iteration int
	state     State
	feedback  []string
	last      extract.Extraction
	done      bool
}

// Start begins a run over text. No model call is made until Next.
func (w *Workflow) Start(text string, categories []models.Category) *Run {
	metrics.Inc(metrics.WorkflowRuns)
	return &Run{wf: w, text: text, categories: categories, state: Running}
}

// State returns the current state of the run.
func (r *Run) State() State { return r.state }

// Next performs one transition and returns it. The boolean is false once
// the run has already finished and no call was made.
func (r *Run) Next(ctx context.Context) (Step, bool) {
	if r.done {
		return Step{}, false
	}
	w := r.wf

	if r.iteration >= w.maxRetries {
		out := w.writer.Extract(ctx, r.text, r.categories, r.lastFeedback())
		r.last = out
		r.state = Exhausted
		r.done = true
		metrics.Inc(metrics.WorkflowExhausted)
		w.logger.Info("workflow: retries exhausted, keeping unreviewed extraction",
			"max_retries", w.maxRetries, "entities", len(out.Entities))
		return Step{Iteration: r.iteration, Extraction: out, State: Exhausted}, true
	}

	i := r.iteration
	out := w.writer.Extract(ctx, r.text, r.categories, r.lastFeedback())
	r.last = out
	r.iteration++

	if len(out.Entities) == 0 {
		w.logger.Debug("workflow: writer found no entities, skipping review",
			"iteration", i, "reasoning", out.Reasoning)
		return Step{Iteration: i, Extraction: out, State: Running}, true
	}

	verdict := w.reviewer.Review(ctx, r.text, r.categories, out.Entities, out.Reasoning)
	if verdict.Approved {
		r.iteration = i
		r.state = Approved
		r.done = true
		metrics.Inc(metrics.WorkflowApproved)
		w.logger.Debug("workflow: batch approved", "iteration", i, "entities", len(out.Entities))
		return Step{Iteration: i, Extraction: out, Verdict: &verdict, State: Approved}, true
	}

	r.appendFeedback(verdict.Feedback)
	w.logger.Debug("workflow: batch rejected", "iteration", i, "feedback", verdict.Feedback)
	return Step{Iteration: i, Extraction: out, Verdict: &verdict, State: Running}, true
}

// Result reports the outcome. It is only meaningful once the run is done.
func (r *Run) Result() models.WorkflowResult {
	history := make([]string, len(r.feedback))
	copy(history, r.feedback)

	entities := r.last.Entities
	if entities == nil {
		entities = []models.CandidateEntity{}
	}

	res := models.WorkflowResult{
		Entities:        entities,
		FinalApproval:   r.state == Approved,
		FeedbackHistory: history,
	}
	if r.state == Approved {
		res.TotalRetries = r.iteration
	} else {
		res.TotalRetries = r.wf.maxRetries
	}
	return res
}

// Done reports whether the run reached a terminal state.
func (r *Run) Done() bool { return r.done }

func (r *Run) lastFeedback() string {
	if len(r.feedback) == 0 {
		return ""
	}
	return r.feedback[len(r.feedback)-1]
}

func (r *Run) appendFeedback(fb string) {
	if n := len(r.feedback); n > 0 && r.feedback[n-1] == fb {
		return
	}
	r.feedback = append(r.feedback, fb)
}

// ProcessEntities drives a run to completion and returns its result.
func (w *Workflow) ProcessEntities(ctx context.Context, text string, categories []models.Category) models.WorkflowResult {
	run := w.Start(text, categories)
	for {
		if _, ok := run.Next(ctx); !ok {
			break
		}
	}
	return run.Result()
}
