// Package tagmerge decides when a newly extracted entity should be merged
// into an existing tag, clusters duplicate tags for cleanup, and executes
// merges against the tag store. Every decision is confined to a single
// (category, book) scope.
package tagmerge

import (
	"log/slog"

	"github.com/ajitpratap0/openclaw-tagger/internal/datatype"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

const (
	// DefaultThreshold is the similarity needed to merge when no data type is known.
	DefaultThreshold = 0.75

	// TypedThreshold is the similarity needed to merge under data-type-aware scoring.
	TypedThreshold = 0.8
)

// Resolver makes merge decisions using data-type-aware similarity.
type Resolver struct {
	norm           *datatype.Normalizer
	textThreshold  float64
	typedThreshold float64
	logger         *slog.Logger
}

// NewResolver creates a Resolver. A nil normalizer uses datatype.Default.
func NewResolver(norm *datatype.Normalizer, logger *slog.Logger) *Resolver {
	if norm == nil {
		norm = datatype.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		norm:           norm,
		textThreshold:  DefaultThreshold,
		typedThreshold: TypedThreshold,
		logger:         logger,
	}
}

// WithThresholds overrides the untyped and typed merge thresholds.
// Values outside (0,1] keep the current setting.
func (r *Resolver) WithThresholds(untyped, typed float64) *Resolver {
	if untyped > 0 && untyped <= 1 {
		r.textThreshold = untyped
	}
	if typed > 0 && typed <= 1 {
		r.typedThreshold = typed
	}
	return r
}

// Normalizer returns the normalizer backing the resolver.
func (r *Resolver) Normalizer() *datatype.Normalizer {
	return r.norm
}

// ShouldMerge reports whether a and b are similar enough to be one tag
// under the data type's rules.
func (r *Resolver) ShouldMerge(a, b string, dt models.DataType) bool {
	return r.norm.Similarity(a, b, dt) >= r.typedThreshold
}

// FindMergeableTag returns the existing tag in scope that candidateName
// should merge into, or nil. Tags outside scope are never considered. With
// an empty data type the untyped threshold and text similarity apply.
func (r *Resolver) FindMergeableTag(candidateName string, scope models.Scope, existing []models.Tag, dt models.DataType) *models.Tag {
	threshold := r.textThreshold
	if dt != "" {
		threshold = r.typedThreshold
	}

	var (
		best      *models.Tag
		bestScore float64
	)
	for i := range existing {
		if existing[i].Scope() != scope {
			continue
		}
		score := r.norm.Similarity(candidateName, existing[i].Name, dt)
		if score >= threshold && score > bestScore {
			best = &existing[i]
			bestScore = score
		}
	}

	if best != nil {
		r.logger.Debug("tagmerge: mergeable tag found",
			"candidate", candidateName, "tag", best.Name, "tag_id", best.ID, "score", bestScore, "scope", scope.String())
	}
	return best
}
