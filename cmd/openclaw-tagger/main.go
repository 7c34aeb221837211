package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/openclaw-tagger/internal/catalogue"
	"github.com/ajitpratap0/openclaw-tagger/internal/classifier"
	"github.com/ajitpratap0/openclaw-tagger/internal/config"
	"github.com/ajitpratap0/openclaw-tagger/internal/datatype"
	"github.com/ajitpratap0/openclaw-tagger/internal/extract"
	"github.com/ajitpratap0/openclaw-tagger/internal/llm"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/internal/store"
	"github.com/ajitpratap0/openclaw-tagger/internal/tagmerge"
	"github.com/ajitpratap0/openclaw-tagger/internal/workflow"
)

var cfg *config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:   "openclaw-tagger",
		Short: "OpenClaw Tagger: reviewed entity extraction and tag merging for books",
		Long:  "Tagger extracts categorized entities from book pages with a writer/reviewer model loop and stores them as per-book tags, merging near-duplicates by data type.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		extractCmd(),
		ingestCmd(),
		tagsCmd(),
		categoriesCmd(),
		healthCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch strings.ToLower(cfg.Logging.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newStore connects to Neo4j, or falls back to an in-memory store when no
// URI is configured.
func newStore(ctx context.Context, logger *slog.Logger) (store.TagStore, error) {
	if cfg.Neo4j.URI == "" {
		logger.Warn("neo4j.uri not set, using in-memory store; tags will not persist")
		return store.NewMemoryStore(), nil
	}
	st, err := store.NewNeo4jStore(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func newCaller(system string, logger *slog.Logger) llm.Caller {
	c := llm.NewClaudeCaller(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.MaxTokens, system, logger)
	return llm.WithTimeout(c, cfg.Claude.Timeout)
}

func loadCategories(logger *slog.Logger) ([]models.Category, error) {
	cats, err := catalogue.Load(cfg.Catalogue.Path, classifier.NewClassifier(logger))
	if err != nil {
		return nil, fmt.Errorf("loading catalogue: %w", err)
	}
	return cats, nil
}

func newWorkflow(logger *slog.Logger) *workflow.Workflow {
	writer := extract.NewWriter(newCaller(extract.WriterSystemPrompt, logger), cfg.Workflow.PageTokenBudget, logger)
	reviewer := extract.NewReviewer(newCaller(extract.ReviewerSystemPrompt, logger), cfg.Workflow.PageTokenBudget, logger)
	return workflow.New(writer, reviewer, cfg.Workflow.MaxRetries, logger)
}

func newResolver(logger *slog.Logger) (*tagmerge.Resolver, error) {
	norm, err := datatype.NewNormalizer(cfg.Heuristics)
	if err != nil {
		return nil, fmt.Errorf("building normalizer: %w", err)
	}
	return tagmerge.NewResolver(norm, logger).WithThresholds(cfg.Merge.Threshold, cfg.Merge.TypedThreshold), nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
