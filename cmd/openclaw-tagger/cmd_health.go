package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the catalogue, store and model configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			allOK := true

			// Check catalogue
			if cats, err := loadCategories(logger); err != nil {
				fmt.Printf("Catalogue: FAIL (%v)\n", err)
				allOK = false
			} else {
				fmt.Printf("Catalogue: OK (%d categories)\n", len(cats))
			}

			// Check store
			if cfg.Neo4j.URI == "" {
				fmt.Println("Neo4j: SKIP (neo4j.uri not set, in-memory store)")
			} else {
				st, err := newStore(ctx, logger)
				if err != nil {
					fmt.Printf("Neo4j: FAIL (%v)\n", err)
					allOK = false
				} else {
					defer func() { _ = st.Close() }()
					if stats, err := st.Stats(ctx); err != nil {
						fmt.Printf("Neo4j: FAIL (%v)\n", err)
						allOK = false
					} else {
						fmt.Printf("Neo4j: OK (%d tags, %d content)\n", stats.TotalTags, stats.TotalContent)
					}
				}
			}

			// Check Claude API key
			if cfg.Claude.APIKey == "" {
				fmt.Println("Claude API: FAIL (no API key configured)")
				allOK = false
			} else {
				fmt.Println("Claude API: OK")
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}
}
