package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/internal/pipeline"
	"github.com/ajitpratap0/openclaw-tagger/internal/tagmerge"
)

// pageRecord is one page of an ingest file.
type pageRecord struct {
	ID   string `json:"id"`
	Page int    `json:"page"`
	Text string `json:"text"`
}

func ingestCmd() *cobra.Command {
	var (
		bookID   string
		filePath string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract entities from every page of a book and store them as tags",
		Long: `Processes a book page by page and stores approved entities as tags.

The input is a JSON array of {"page", "text"} objects or JSONL with one such
object per line. Use - as the file path to read from stdin. Pages run
concurrently up to pipeline.concurrency.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			if strings.TrimSpace(bookID) == "" {
				return fmt.Errorf("ingest: --book is required")
			}

			var r io.Reader
			if filePath == "" || filePath == "-" {
				r = os.Stdin
			} else {
				f, openErr := os.Open(filePath)
				if openErr != nil {
					return fmt.Errorf("ingest: opening file: %w", openErr)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			records, err := decodePages(r, format)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			pages := make([]models.Content, 0, len(records))
			for _, rec := range records {
				pages = append(pages, models.Content{ID: rec.ID, BookID: bookID, Page: rec.Page, Text: rec.Text})
			}

			cats, err := loadCategories(logger)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("ingest: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			resolver, err := newResolver(logger)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			ingestor := tagmerge.NewIngestor(st, resolver, tagmerge.NewScopeLocks(), logger)
			bp := pipeline.NewBookProcessor(newWorkflow(logger), ingestor, cfg.Pipeline.Concurrency, cfg.Pipeline.IngestUnapproved, logger)

			report, err := bp.Process(ctx, bookID, pages, cats)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			fmt.Printf("Book %s: %d pages, %d approved\n", bookID, len(report.Pages), report.Approved)
			fmt.Printf("Tags: %d created, %d merged, %d entities skipped\n", report.Created, report.Merged, report.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "book ID the pages belong to")
	cmd.Flags().StringVar(&filePath, "file", "", "pages file (- for stdin)")
	cmd.Flags().StringVar(&format, "format", "json", "input format: json or jsonl")
	return cmd
}

func decodePages(r io.Reader, format string) ([]pageRecord, error) {
	var records []pageRecord
	switch strings.ToLower(format) {
	case "json":
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	case "jsonl":
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var rec pageRecord
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				return nil, fmt.Errorf("decoding JSONL line: %w", err)
			}
			records = append(records, rec)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading JSONL: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q (use json or jsonl)", format)
	}
	return records, nil
}
