// Package metrics provides application-level counters using stdlib expvar.
// Counters are automatically exported on the /debug/vars HTTP endpoint
// when net/http/pprof is imported in the main binary.
package metrics

import "expvar"

// Operation counters.
var (
	WorkflowRuns      = expvar.NewInt("tagger_workflow_runs_total")
	WorkflowApproved  = expvar.NewInt("tagger_workflow_approved_total")
	WorkflowExhausted = expvar.NewInt("tagger_workflow_exhausted_total")
	WriterCalls       = expvar.NewInt("tagger_writer_calls_total")
	WriterFailures    = expvar.NewInt("tagger_writer_failures_total")
	ReviewerCalls     = expvar.NewInt("tagger_reviewer_calls_total")
	ReviewerFailures  = expvar.NewInt("tagger_reviewer_failures_total")
	TagsCreated       = expvar.NewInt("tagger_tags_created_total")
	TagsLinked        = expvar.NewInt("tagger_tags_linked_total")
	TagsMerged        = expvar.NewInt("tagger_tags_merged_total")
	EntitiesSkipped   = expvar.NewInt("tagger_entities_skipped_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
