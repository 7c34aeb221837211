package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	taggermcp "github.com/ajitpratap0/openclaw-tagger/internal/mcp"
	"github.com/ajitpratap0/openclaw-tagger/internal/tagmerge"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  extract_entities    run the writer/reviewer loop over a page, optionally storing tags
  find_mergeable_tag  find the tag a value would merge into
  dedup_tags          group near-duplicate tags, optionally merging them
  merge_tags          merge one tag into another
  list_tags           list stored tags

If Neo4j is unavailable at startup the server still starts;
tool calls that need storage will return MCP error responses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cats, err := loadCategories(logger)
			if err != nil {
				return err
			}
			resolver, err := newResolver(logger)
			if err != nil {
				return err
			}

			deps := taggermcp.Deps{
				Categories:     cats,
				Processor:      newWorkflow(logger),
				Resolver:       resolver,
				DedupThreshold: cfg.Merge.DedupThreshold,
			}

			st, storeErr := newStore(ctx, logger)
			if storeErr != nil {
				// Log to stderr and continue without a store.
				logger.Error("mcp: failed to connect to store; tool calls requiring storage will fail",
					"error", storeErr)
			} else {
				defer func() { _ = st.Close() }()
				locks := tagmerge.NewScopeLocks()
				deps.Store = st
				deps.Ingestor = tagmerge.NewIngestor(st, resolver, locks, logger)
				deps.Merger = tagmerge.NewMerger(st, locks, logger)
			}

			srv := taggermcp.NewServer(deps, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: openclaw-tagger MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
