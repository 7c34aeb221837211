// Package pipeline runs the extraction workflow over every page of a book
// and ingests the results as tags.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/internal/tagmerge"
)

// DefaultConcurrency is the number of pages processed at once when none is set.
const DefaultConcurrency = 4

var contentNamespace = uuid.MustParse("0c9b5d3e-7a41-4f62-8d1e-5b2a9c4e7f30")

// EntityProcessor runs the writer/reviewer loop for one page.
type EntityProcessor interface {
	ProcessEntities(ctx context.Context, text string, categories []models.Category) models.WorkflowResult
}

// Ingester stores a page's entities as tags.
type Ingester interface {
	Ingest(ctx context.Context, content models.Content, entities []models.CandidateEntity, categories []models.Category) (tagmerge.IngestReport, error)
}

// PageResult is the outcome for one page.
type PageResult struct {
	ContentID string                 `json:"content_id"`
	Page      int                    `json:"page"`
	Workflow  models.WorkflowResult  `json:"workflow"`
	Ingest    *tagmerge.IngestReport `json:"ingest,omitempty"`
}

// BookReport is the outcome for a whole book, pages in input order.
type BookReport struct {
	BookID   string       `json:"book_id"`
	Pages    []PageResult `json:"pages"`
	Approved int          `json:"approved"`
	Created  int          `json:"created"`
	Merged   int          `json:"merged"`
	Skipped  int          `json:"skipped"`
}

// BookProcessor processes the pages of a book concurrently. Each page gets
// its own workflow run; ingestion is serialized per tag scope by the
// ingester.
type BookProcessor struct {
	proc             EntityProcessor
	ingester         Ingester
	concurrency      int
	ingestUnapproved bool
	logger           *slog.Logger
}

// NewBookProcessor creates a BookProcessor. A nil ingester makes Process
// extract only. When ingestUnapproved is false, pages whose run exhausted
// its retries are reported but not ingested.
func NewBookProcessor(proc EntityProcessor, ingester Ingester, concurrency int, ingestUnapproved bool, logger *slog.Logger) *BookProcessor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookProcessor{
		proc:             proc,
		ingester:         ingester,
		concurrency:      concurrency,
		ingestUnapproved: ingestUnapproved,
		logger:           logger,
	}
}

// Process runs every page of bookID. Pages without an ID get one derived
// from the book and page number, so reprocessing a book updates the same
// content. The first ingest error cancels the remaining pages.
func (b *BookProcessor) Process(ctx context.Context, bookID string, pages []models.Content, categories []models.Category) (BookReport, error) {
	report := BookReport{BookID: bookID, Pages: make([]PageResult, len(pages))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range pages {
		page := pages[i]
		page.BookID = bookID
		if page.ID == "" {
			page.ID = ContentID(bookID, page.Page)
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			res := b.proc.ProcessEntities(gctx, page.Text, categories)
			pr := PageResult{ContentID: page.ID, Page: page.Page, Workflow: res}

			if b.ingester != nil && (res.FinalApproval || b.ingestUnapproved) {
				ing, err := b.ingester.Ingest(gctx, page, res.Entities, categories)
				if err != nil {
					return fmt.Errorf("page %d: %w", page.Page, err)
				}
				pr.Ingest = &ing
			}

			b.logger.Debug("page processed",
				"book", bookID, "page", page.Page,
				"entities", len(res.Entities), "approved", res.FinalApproval, "retries", res.TotalRetries)
			report.Pages[i] = pr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("processing book %s: %w", bookID, err)
	}

	for _, p := range report.Pages {
		if p.Workflow.FinalApproval {
			report.Approved++
		}
		if p.Ingest != nil {
			report.Created += p.Ingest.Created
			report.Merged += p.Ingest.Merged
			report.Skipped += p.Ingest.Skipped
		}
	}

	b.logger.Info("book processed",
		"book", bookID, "pages", len(pages), "approved", report.Approved,
		"created", report.Created, "merged", report.Merged, "skipped", report.Skipped)
	return report, nil
}

// ContentID derives a stable content ID for a page of a book.
func ContentID(bookID string, page int) string {
	return uuid.NewSHA1(contentNamespace, []byte(bookID+"#"+strconv.Itoa(page))).String()
}
