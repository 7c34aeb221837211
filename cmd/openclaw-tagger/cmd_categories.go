package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show the category catalogue with resolved data types",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cats, err := loadCategories(logger)
			if err != nil {
				return fmt.Errorf("categories: %w", err)
			}

			for i, c := range cats {
				fmt.Printf("[%d] %s (%s)\n", i+1, c.Name, c.DataType)
				fmt.Printf("    ID: %s\n", c.ID)
				if c.Description != "" {
					fmt.Printf("    %s\n", truncate(c.Description, 100))
				}
				if len(c.Keywords) > 0 {
					fmt.Printf("    Keywords: %s\n", strings.Join(c.Keywords, ", "))
				}
			}
			return nil
		},
	}
}
