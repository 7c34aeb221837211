package tagmerge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/openclaw-tagger/internal/metrics"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/internal/store"
)

// IngestReport summarizes one Ingest call.
type IngestReport struct {
	Created int      `json:"created"`
	Merged  int      `json:"merged"`
	Skipped int      `json:"skipped"`
	TagIDs  []string `json:"tag_ids"`
}

// Ingestor persists approved entities as tags, merging each into an
// existing tag of the same scope when one is similar enough.
type Ingestor struct {
	st       store.TagStore
	resolver *Resolver
	locks    *ScopeLocks
	logger   *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(st store.TagStore, resolver *Resolver, locks *ScopeLocks, logger *slog.Logger) *Ingestor {
	if resolver == nil {
		resolver = NewResolver(nil, logger)
	}
	if locks == nil {
		locks = NewScopeLocks()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{st: st, resolver: resolver, locks: locks, logger: logger}
}

// Ingest stores content and attaches each entity to it as a tag. Entities
// whose category is unknown or whose value is invalid for the category's
// data type are skipped. The read-decide-write for each entity runs under
// its scope lock, so concurrent pages of one book cannot both create the
// same tag.
func (in *Ingestor) Ingest(ctx context.Context, content models.Content, entities []models.CandidateEntity, categories []models.Category) (IngestReport, error) {
	var report IngestReport

	if err := in.st.UpsertContent(ctx, content); err != nil {
		return report, fmt.Errorf("ingest: storing content: %w", err)
	}

	norm := in.resolver.Normalizer()
	for i := range entities {
		e := &entities[i]

		cat := models.FindCategory(categories, e.Category)
		if cat == nil {
			in.skip(&report, e, "unknown category")
			continue
		}

		value := norm.Normalize(e.Value, cat.DataType)
		if !norm.IsValid(value, cat.DataType) {
			in.skip(&report, e, "invalid for data type "+string(cat.DataType))
			continue
		}
		if norm.IsLowQuality(value) {
			in.skip(&report, e, "low quality value")
			continue
		}

		scope := models.Scope{CategoryID: cat.ID, BookID: content.BookID}
		err := in.locks.Do(scope, func() error {
			return in.attach(ctx, &report, scope, value, cat.DataType, content.ID)
		})
		if err != nil {
			return report, fmt.Errorf("ingest: entity %q: %w", e.Value, err)
		}
	}

	in.logger.Info("ingested entities",
		"book", content.BookID, "content", content.ID,
		"created", report.Created, "merged", report.Merged, "skipped", report.Skipped)
	return report, nil
}

// attach must run under the scope lock.
func (in *Ingestor) attach(ctx context.Context, report *IngestReport, scope models.Scope, value string, dt models.DataType, contentID string) error {
	existing, err := in.st.ListTags(ctx, store.ScopeFilter(scope))
	if err != nil {
		return fmt.Errorf("listing scope tags: %w", err)
	}

	if match := in.resolver.FindMergeableTag(value, scope, existing, dt); match != nil {
		if err := in.st.LinkContent(ctx, match.ID, contentID); err != nil {
			return fmt.Errorf("linking to tag %s: %w", match.ID, err)
		}
		report.Merged++
		report.TagIDs = append(report.TagIDs, match.ID)
		metrics.Inc(metrics.TagsLinked)
		return nil
	}

	now := time.Now().UTC()
	tag := models.Tag{
		ID:         uuid.New().String(),
		Name:       value,
		CategoryID: scope.CategoryID,
		BookID:     scope.BookID,
		ContentIDs: []string{contentID},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := in.st.CreateTag(ctx, tag); err != nil {
		return fmt.Errorf("creating tag: %w", err)
	}
	report.Created++
	report.TagIDs = append(report.TagIDs, tag.ID)
	metrics.Inc(metrics.TagsCreated)
	return nil
}

func (in *Ingestor) skip(report *IngestReport, e *models.CandidateEntity, reason string) {
	report.Skipped++
	metrics.Inc(metrics.EntitiesSkipped)
	in.logger.Debug("ingest: skipping entity", "category", e.Category, "value", e.Value, "reason", reason)
}
