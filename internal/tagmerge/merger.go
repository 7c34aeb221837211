package tagmerge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ajitpratap0/openclaw-tagger/internal/metrics"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/internal/store"
)

var (
	// ErrCrossScope is returned when two tags from different scopes are asked to merge.
	ErrCrossScope = errors.New("tags belong to different scopes")

	// ErrSelfMerge is returned when a tag is asked to merge into itself.
	ErrSelfMerge = errors.New("cannot merge a tag into itself")
)

// MergeOutcome describes one executed merge.
type MergeOutcome struct {
	PrimaryID   string `json:"primary_id"`
	DuplicateID string `json:"duplicate_id"`
	Moved       int    `json:"moved"`
	Deleted     bool   `json:"deleted"`
}

// Merger executes tag merges against a TagStore.
type Merger struct {
	st     store.TagStore
	locks  *ScopeLocks
	logger *slog.Logger
}

// NewMerger creates a Merger. locks may be shared with an Ingestor so that
// merges and ingestion in the same scope never interleave.
func NewMerger(st store.TagStore, locks *ScopeLocks, logger *slog.Logger) *Merger {
	if locks == nil {
		locks = NewScopeLocks()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{st: st, locks: locks, logger: logger}
}

// Merge moves every content association of duplicateID onto primaryID and
// deletes duplicateID. Merging an already-merged pair is a no-op. The
// primary is never deleted; a missing primary is an error so content is
// never orphaned.
func (m *Merger) Merge(ctx context.Context, primaryID, duplicateID string) (MergeOutcome, error) {
	out := MergeOutcome{PrimaryID: primaryID, DuplicateID: duplicateID}
	if primaryID == duplicateID {
		return out, ErrSelfMerge
	}

	primary, err := m.st.GetTag(ctx, primaryID)
	if err != nil {
		return out, fmt.Errorf("merge: loading primary: %w", err)
	}

	dup, err := m.st.GetTag(ctx, duplicateID)
	if errors.Is(err, store.ErrNotFound) {
		m.logger.Debug("merge: duplicate already gone", "primary", primaryID, "duplicate", duplicateID)
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("merge: loading duplicate: %w", err)
	}

	if primary.Scope() != dup.Scope() {
		return out, fmt.Errorf("merge %s into %s: %w", duplicateID, primaryID, ErrCrossScope)
	}

	err = m.locks.Do(primary.Scope(), func() error {
		moved, reassignErr := m.st.ReassignContent(ctx, duplicateID, primaryID)
		if reassignErr != nil {
			return fmt.Errorf("merge: reassigning content: %w", reassignErr)
		}
		out.Moved = moved

		if delErr := m.st.DeleteTag(ctx, duplicateID); delErr != nil {
			if errors.Is(delErr, store.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("merge: deleting duplicate: %w", delErr)
		}
		out.Deleted = true
		return nil
	})
	if err != nil {
		return out, err
	}

	metrics.Inc(metrics.TagsMerged)
	m.logger.Info("merged tags",
		"primary", primary.Name, "primary_id", primaryID,
		"duplicate", dup.Name, "duplicate_id", duplicateID,
		"moved", out.Moved)
	return out, nil
}

// Apply executes every merge in groups, stopping at the first failure.
func (m *Merger) Apply(ctx context.Context, groups []MergeGroup) ([]MergeOutcome, error) {
	var outcomes []MergeOutcome
	for i := range groups {
		for j := range groups[i].Duplicates {
			out, err := m.Merge(ctx, groups[i].Primary.ID, groups[i].Duplicates[j].ID)
			if err != nil {
				return outcomes, fmt.Errorf("applying group %d: %w", i, err)
			}
			outcomes = append(outcomes, out)
		}
	}
	return outcomes, nil
}

// Cleanup lists the tags matching filter, clusters near-duplicates with r
// and, when apply is set, merges every group. dataTypes maps category IDs
// to data types.
func (m *Merger) Cleanup(ctx context.Context, r *Resolver, filter store.TagFilter, dataTypes map[string]models.DataType, threshold float64, apply bool) ([]MergeGroup, []MergeOutcome, error) {
	tags, err := m.st.ListTags(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("cleanup: listing tags: %w", err)
	}

	groups := r.FindSimilarTags(tags, dataTypes, threshold)
	if !apply || len(groups) == 0 {
		return groups, nil, nil
	}

	outcomes, err := m.Apply(ctx, groups)
	if err != nil {
		return groups, outcomes, fmt.Errorf("cleanup: %w", err)
	}
	m.logger.Info("tagmerge: cleanup applied", "groups", len(groups), "merges", len(outcomes))
	return groups, outcomes, nil
}
