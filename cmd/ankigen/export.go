package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Rewrite the CSV deck files from the database",
		RunE:  runExport,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		result, err := d.Export.Handle(ctx)
		if err != nil {
			return fmt.Errorf("exporting decks: %w", err)
		}

		fmt.Printf("Wrote %s and %s\n", result.WordsFile, result.GrammarFile)
		return nil
	})
}
