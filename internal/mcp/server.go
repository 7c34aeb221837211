// Package mcp implements the Model Context Protocol server for openclaw-tagger.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/internal/pipeline"
	"github.com/ajitpratap0/openclaw-tagger/internal/store"
	"github.com/ajitpratap0/openclaw-tagger/internal/tagmerge"
)

// Deps are the collaborators behind the tools. A nil field makes the
// tools that need it return an error result instead of panicking.
type Deps struct {
	Categories []models.Category
	Processor  pipeline.EntityProcessor
	Ingestor   *tagmerge.Ingestor
	Resolver   *tagmerge.Resolver
	Merger     *tagmerge.Merger
	Store      store.TagStore
	// DedupThreshold is used by dedup_tags when the call gives none.
	DedupThreshold float64
}

// Server wraps an MCPServer with openclaw-tagger dependencies.
type Server struct {
	mcp    *mcpserver.MCPServer
	deps   Deps
	logger *slog.Logger
}

// NewServer creates a new MCP server.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{deps: deps, logger: logger}

	mcpSrv := mcpserver.NewMCPServer(
		"openclaw-tagger",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildExtractTool(), s.handleExtract)
	mcpSrv.AddTool(buildFindMergeableTool(), s.handleFindMergeable)
	mcpSrv.AddTool(buildDedupTool(), s.handleDedup)
	mcpSrv.AddTool(buildMergeTool(), s.handleMerge)
	mcpSrv.AddTool(buildListTool(), s.handleList)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleExtract is the exported handler for the "extract_entities" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleExtract(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleExtract(ctx, req)
}

// HandleFindMergeable is the exported handler for the "find_mergeable_tag" tool.
func (s *Server) HandleFindMergeable(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleFindMergeable(ctx, req)
}

// HandleDedup is the exported handler for the "dedup_tags" tool.
func (s *Server) HandleDedup(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleDedup(ctx, req)
}

// HandleMerge is the exported handler for the "merge_tags" tool.
func (s *Server) HandleMerge(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleMerge(ctx, req)
}

// HandleList is the exported handler for the "list_tags" tool.
func (s *Server) HandleList(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleList(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// category resolves a category by name or ID.
func (s *Server) category(ref string) *models.Category {
	if c := models.FindCategory(s.deps.Categories, ref); c != nil {
		return c
	}
	for i := range s.deps.Categories {
		if s.deps.Categories[i].ID == ref {
			return &s.deps.Categories[i]
		}
	}
	return nil
}

// --- tool definitions ---

func buildExtractTool() mcpgo.Tool {
	return mcpgo.NewTool("extract_entities",
		mcpgo.WithDescription("Run the writer/reviewer extraction loop over one page of text. Optionally store approved entities as tags."),
		mcpgo.WithString("text",
			mcpgo.Required(),
			mcpgo.Description("The page text to extract entities from"),
		),
		mcpgo.WithString("book_id",
			mcpgo.Description("Book the page belongs to (required when ingest is true)"),
		),
		mcpgo.WithNumber("page",
			mcpgo.Description("Page number within the book"),
		),
		mcpgo.WithBoolean("ingest",
			mcpgo.Description("Store approved entities as tags (default: false)"),
		),
	)
}

func buildFindMergeableTool() mcpgo.Tool {
	return mcpgo.NewTool("find_mergeable_tag",
		mcpgo.WithDescription("Find the existing tag a new value would merge into within one category and book."),
		mcpgo.WithString("name",
			mcpgo.Required(),
			mcpgo.Description("Candidate tag value"),
		),
		mcpgo.WithString("category",
			mcpgo.Required(),
			mcpgo.Description("Category name or ID"),
		),
		mcpgo.WithString("book_id",
			mcpgo.Required(),
			mcpgo.Description("Book ID"),
		),
	)
}

func buildDedupTool() mcpgo.Tool {
	return mcpgo.NewTool("dedup_tags",
		mcpgo.WithDescription("Group near-duplicate tags per category and book. With apply=true the groups are merged."),
		mcpgo.WithString("book_id",
			mcpgo.Description("Limit to one book"),
		),
		mcpgo.WithString("category",
			mcpgo.Description("Limit to one category (name or ID)"),
		),
		mcpgo.WithNumber("threshold",
			mcpgo.Description("Similarity threshold 0.0-1.0"),
		),
		mcpgo.WithBoolean("apply",
			mcpgo.Description("Merge the groups found (default: false)"),
		),
	)
}

func buildMergeTool() mcpgo.Tool {
	return mcpgo.NewTool("merge_tags",
		mcpgo.WithDescription("Merge a duplicate tag into a primary tag of the same category and book."),
		mcpgo.WithString("primary_id",
			mcpgo.Required(),
			mcpgo.Description("Tag to keep"),
		),
		mcpgo.WithString("duplicate_id",
			mcpgo.Required(),
			mcpgo.Description("Tag to fold into the primary and delete"),
		),
	)
}

func buildListTool() mcpgo.Tool {
	return mcpgo.NewTool("list_tags",
		mcpgo.WithDescription("List stored tags, oldest first."),
		mcpgo.WithString("book_id",
			mcpgo.Description("Filter by book"),
		),
		mcpgo.WithString("category",
			mcpgo.Description("Filter by category (name or ID)"),
		),
		mcpgo.WithString("name",
			mcpgo.Description("Filter by case-insensitive name substring"),
		),
	)
}

// --- tool handlers ---

// handleExtract runs the workflow and, when asked, ingests the approved result.
func (s *Server) handleExtract(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.deps.Processor == nil {
		return mcpgo.NewToolResultError("extraction is unavailable"), nil
	}

	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcpgo.NewToolResultError("text is required and must not be empty"), nil
	}
	ingest := req.GetBool("ingest", false)
	bookID := strings.TrimSpace(req.GetString("book_id", ""))
	page := req.GetInt("page", 0)
	if ingest {
		if bookID == "" {
			return mcpgo.NewToolResultError("book_id is required when ingest is true"), nil
		}
		if s.deps.Ingestor == nil {
			return mcpgo.NewToolResultError("ingestion is unavailable"), nil
		}
	}

	res := s.deps.Processor.ProcessEntities(ctx, text, s.deps.Categories)
	out := map[string]any{"result": res}

	if ingest && res.FinalApproval {
		content := models.Content{ID: pipeline.ContentID(bookID, page), BookID: bookID, Page: page, Text: text}
		report, err := s.deps.Ingestor.Ingest(ctx, content, res.Entities, s.deps.Categories)
		if err != nil {
			return mcpgo.NewToolResultErrorf("ingest failed: %s", err.Error()), nil
		}
		out["ingest"] = report
	}

	s.logger.Info("mcp: extract_entities", "entities", len(res.Entities), "approved", res.FinalApproval, "retries", res.TotalRetries)
	return toolResultJSON(out)
}

// handleFindMergeable reports the tag a candidate value would merge into.
func (s *Server) handleFindMergeable(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.deps.Store == nil || s.deps.Resolver == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}

	name := strings.TrimSpace(req.GetString("name", ""))
	bookID := strings.TrimSpace(req.GetString("book_id", ""))
	if name == "" || bookID == "" {
		return mcpgo.NewToolResultError("name and book_id are required and must not be empty"), nil
	}
	cat := s.category(req.GetString("category", ""))
	if cat == nil {
		return mcpgo.NewToolResultErrorf("unknown category %q", req.GetString("category", "")), nil
	}

	scope := models.Scope{CategoryID: cat.ID, BookID: bookID}
	existing, err := s.deps.Store.ListTags(ctx, store.ScopeFilter(scope))
	if err != nil {
		return mcpgo.NewToolResultErrorf("listing tags failed: %s", err.Error()), nil
	}

	norm := s.deps.Resolver.Normalizer()
	value := norm.Normalize(name, cat.DataType)
	match := s.deps.Resolver.FindMergeableTag(value, scope, existing, cat.DataType)

	result := map[string]any{
		"normalized": value,
		"found":      match != nil,
	}
	if match != nil {
		result["tag"] = match
		result["similarity"] = norm.Similarity(value, match.Name, cat.DataType)
	}
	return toolResultJSON(result)
}

// handleDedup clusters near-duplicate tags and optionally merges them.
func (s *Server) handleDedup(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.deps.Merger == nil || s.deps.Resolver == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}

	filter := store.TagFilter{BookID: strings.TrimSpace(req.GetString("book_id", ""))}
	if ref := req.GetString("category", ""); ref != "" {
		cat := s.category(ref)
		if cat == nil {
			return mcpgo.NewToolResultErrorf("unknown category %q", ref), nil
		}
		filter.CategoryID = cat.ID
	}

	threshold := req.GetFloat("threshold", s.deps.DedupThreshold)
	if threshold < 0.0 || threshold > 1.0 {
		return mcpgo.NewToolResultError("threshold must be between 0.0 and 1.0"), nil
	}
	apply := req.GetBool("apply", false)

	groups, outcomes, err := s.deps.Merger.Cleanup(ctx, s.deps.Resolver, filter, models.DataTypesByID(s.deps.Categories), threshold, apply)
	if err != nil {
		return mcpgo.NewToolResultErrorf("dedup failed: %s", err.Error()), nil
	}

	if groups == nil {
		groups = []tagmerge.MergeGroup{}
	}
	result := map[string]any{
		"groups":  groups,
		"applied": apply,
	}
	if apply {
		result["merges"] = outcomes
	}
	return toolResultJSON(result)
}

// handleMerge merges one tag into another.
func (s *Server) handleMerge(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.deps.Merger == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}

	primaryID := strings.TrimSpace(req.GetString("primary_id", ""))
	duplicateID := strings.TrimSpace(req.GetString("duplicate_id", ""))
	if primaryID == "" || duplicateID == "" {
		return mcpgo.NewToolResultError("primary_id and duplicate_id are required and must not be empty"), nil
	}

	out, err := s.deps.Merger.Merge(ctx, primaryID, duplicateID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return mcpgo.NewToolResultErrorf("primary tag %s not found", primaryID), nil
	case err != nil:
		return mcpgo.NewToolResultErrorf("merge failed: %s", err.Error()), nil
	}

	s.logger.Info("mcp: merge_tags", "primary", primaryID, "duplicate", duplicateID, "moved", out.Moved)
	return toolResultJSON(out)
}

// handleList returns tags matching the filter.
func (s *Server) handleList(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.deps.Store == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}

	filter := store.TagFilter{
		BookID: strings.TrimSpace(req.GetString("book_id", "")),
		Name:   strings.TrimSpace(req.GetString("name", "")),
	}
	if ref := req.GetString("category", ""); ref != "" {
		cat := s.category(ref)
		if cat == nil {
			return mcpgo.NewToolResultErrorf("unknown category %q", ref), nil
		}
		filter.CategoryID = cat.ID
	}

	tags, err := s.deps.Store.ListTags(ctx, filter)
	if err != nil {
		return mcpgo.NewToolResultErrorf("listing tags failed: %s", err.Error()), nil
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return toolResultJSON(map[string]any{"tags": tags, "count": len(tags)})
}
