package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
	"github.com/ajitpratap0/openclaw-tagger/internal/store"
	"github.com/ajitpratap0/openclaw-tagger/internal/tagmerge"
)

func tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Inspect and clean up stored tags",
	}
	cmd.AddCommand(tagsListCmd(), tagsMergeCmd(), tagsDedupCmd())
	return cmd
}

// categoryFilter resolves a --category flag (name or ID) to a category ID.
func categoryFilter(cats []models.Category, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if c := models.FindCategory(cats, ref); c != nil {
		return c.ID, nil
	}
	for i := range cats {
		if cats[i].ID == ref {
			return ref, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", ref)
}

func tagsListCmd() *cobra.Command {
	var (
		bookID   string
		category string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cats, err := loadCategories(logger)
			if err != nil {
				return fmt.Errorf("tags list: %w", err)
			}
			catID, err := categoryFilter(cats, category)
			if err != nil {
				return fmt.Errorf("tags list: %w", err)
			}

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("tags list: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			tags, err := st.ListTags(ctx, store.TagFilter{BookID: bookID, CategoryID: catID, Name: name})
			if err != nil {
				return fmt.Errorf("tags list: fetching tags: %w", err)
			}

			names := make(map[string]string, len(cats))
			for _, c := range cats {
				names[c.ID] = c.Name
			}
			for i, t := range tags {
				catName := names[t.CategoryID]
				if catName == "" {
					catName = t.CategoryID
				}
				fmt.Printf("[%d] [%s/%s] %s\n", i+1, t.BookID, catName, truncate(t.Name, 100))
				fmt.Printf("    ID: %s | Content: %d | Created: %s\n", t.ID, len(t.ContentIDs), t.CreatedAt.Format("2006-01-02 15:04"))
			}
			if len(tags) == 0 {
				fmt.Println("No tags found.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "filter by book ID")
	cmd.Flags().StringVar(&category, "category", "", "filter by category name or ID")
	cmd.Flags().StringVar(&name, "name", "", "filter by name substring")
	return cmd
}

func tagsMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <primary-id> <duplicate-id>",
		Short: "Merge a duplicate tag into a primary tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("tags merge: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			out, err := tagmerge.NewMerger(st, nil, logger).Merge(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("tags merge: %w", err)
			}
			if !out.Deleted {
				fmt.Printf("Tag %s not found; nothing to merge.\n", args[1])
				return nil
			}
			fmt.Printf("Merged %s into %s (%d content links moved)\n", out.DuplicateID, out.PrimaryID, out.Moved)
			return nil
		},
	}
}

func tagsDedupCmd() *cobra.Command {
	var (
		bookID    string
		category  string
		threshold float64
		apply     bool
	)

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Find near-duplicate tags per category and book, and optionally merge them",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cats, err := loadCategories(logger)
			if err != nil {
				return fmt.Errorf("tags dedup: %w", err)
			}
			catID, err := categoryFilter(cats, category)
			if err != nil {
				return fmt.Errorf("tags dedup: %w", err)
			}
			if threshold <= 0 {
				threshold = cfg.Merge.DedupThreshold
			}

			st, err := newStore(ctx, logger)
			if err != nil {
				return fmt.Errorf("tags dedup: connecting to store: %w", err)
			}
			defer func() { _ = st.Close() }()

			resolver, err := newResolver(logger)
			if err != nil {
				return fmt.Errorf("tags dedup: %w", err)
			}
			merger := tagmerge.NewMerger(st, nil, logger)
			groups, outcomes, err := merger.Cleanup(ctx, resolver, store.TagFilter{BookID: bookID, CategoryID: catID}, models.DataTypesByID(cats), threshold, apply)
			if err != nil {
				return fmt.Errorf("tags dedup: %w", err)
			}

			for i, g := range groups {
				fmt.Printf("[%d] %s: keep %q (%s)\n", i+1, g.Scope, g.Primary.Name, g.Primary.ID)
				for _, d := range g.Duplicates {
					fmt.Printf("    merge %q (%s)\n", d.Name, d.ID)
				}
			}
			switch {
			case len(groups) == 0:
				fmt.Println("No duplicate tags found.")
			case apply:
				fmt.Printf("Applied %d merges.\n", len(outcomes))
			default:
				fmt.Println("Dry run; pass --apply to merge.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "limit to one book")
	cmd.Flags().StringVar(&category, "category", "", "limit to one category (name or ID)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "similarity threshold (default merge.dedup_threshold)")
	cmd.Flags().BoolVar(&apply, "apply", false, "merge the groups found")
	return cmd
}
