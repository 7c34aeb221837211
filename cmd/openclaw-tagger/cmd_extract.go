package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func extractCmd() *cobra.Command {
	var (
		filePath string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "extract [text]",
		Short: "Run the writer/reviewer loop over one page and print the entities",
		Long: `Extracts entities from one page of text without storing them.

The text is taken from the argument, from --file, or from stdin when neither is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			text, err := readPageText(args, filePath)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("extract: no text given")
			}

			cats, err := loadCategories(logger)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}

			res := newWorkflow(logger).ProcessEntities(ctx, text, cats)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			status := "approved"
			if !res.FinalApproval {
				status = "not approved"
			}
			fmt.Printf("Result: %s after %d retries\n", status, res.TotalRetries)
			for i, e := range res.Entities {
				fmt.Printf("[%d] %s: %s (confidence %.2f)\n", i+1, e.Category, e.Value, e.Confidence)
				if e.Content != "" {
					fmt.Printf("    %s\n", truncate(e.Content, 100))
				}
			}
			if len(res.Entities) == 0 {
				fmt.Println("No entities found.")
			}
			for i, fb := range res.FeedbackHistory {
				fmt.Printf("Feedback %d: %s\n", i+1, truncate(fb, 200))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "read page text from file (- for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func readPageText(args []string, filePath string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	var r io.Reader = os.Stdin
	if filePath != "" && filePath != "-" {
		f, err := os.Open(filePath)
		if err != nil {
			return "", fmt.Errorf("opening file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return string(data), nil
}
