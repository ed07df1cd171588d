package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karuta/ankigen/internal/application/handlers"
	"github.com/karuta/ankigen/internal/domain/entities"
)

func newReanalyzeCmd() *cobra.Command {
	var id int64
	var pos bool

	cmd := &cobra.Command{
		Use:   "reanalyze <words|grammar>",
		Short: "Re-run the analysis for stored entries",
		Long:  "Re-runs the model analysis for all entries of a kind, a single entry (--id), or re-derives part-of-speech labels for all words (--pos). Rows are rewritten only when the new result differs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReanalyze(cmd, args[0], id, pos)
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "Re-analyze a single entry by id")
	cmd.Flags().BoolVar(&pos, "pos", false, "Re-derive part-of-speech labels (words only)")

	return cmd
}

func kindFromArg(arg string) (entities.Kind, error) {
	switch arg {
	case "words", "word":
		return entities.KindWord, nil
	case "grammar":
		return entities.KindGrammar, nil
	default:
		return "", fmt.Errorf("unknown kind: %q (want words or grammar)", arg)
	}
}

func runReanalyze(cmd *cobra.Command, kindArg string, id int64, pos bool) error {
	ctx := cmd.Context()

	kind, err := kindFromArg(kindArg)
	if err != nil {
		return err
	}

	return withDeps(func(d *Deps) error {
		result, err := d.Reanalyze.Handle(ctx, handlers.ReanalyzeOptions{
			Kind:         kind,
			ID:           id,
			PartOfSpeech: pos,
		})
		if err != nil {
			return fmt.Errorf("reanalyzing: %w", err)
		}

		if result.Entry != nil {
			fmt.Printf("Updated %s %d (%s)\n", result.Entry.Kind, result.Entry.ID, result.Entry.Surface)
			return nil
		}
		printSummary(result.Summary)
		return nil
	})
}
