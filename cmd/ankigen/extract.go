package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karuta/ankigen/internal/application/handlers"
)

func newExtractCmd() *cobra.Command {
	var wordsOnly, grammarOnly bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract vocabulary and grammar from a text file",
		Long:  "Reads a Japanese text file, extracts word and grammar candidates using the configured model, analyzes each new candidate, stores results and rewrites the CSV decks.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], wordsOnly, grammarOnly)
		},
	}

	cmd.Flags().BoolVar(&wordsOnly, "words", false, "Process words only")
	cmd.Flags().BoolVar(&grammarOnly, "grammar", false, "Process grammar points only")

	return cmd
}

func runExtract(cmd *cobra.Command, filePath string, wordsOnly, grammarOnly bool) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		fmt.Printf("Extracting from %s...\n", filePath)

		result, err := d.Extract.Handle(ctx, filePath, handlers.ExtractOptions{
			WordsOnly:   wordsOnly,
			GrammarOnly: grammarOnly,
		})
		if err != nil {
			return fmt.Errorf("extracting file: %w", err)
		}

		printSummary(result.Summary)
		return nil
	})
}
