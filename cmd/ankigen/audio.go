package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAudioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audio",
		Short: "Generate audio files for words that have none",
		Long:  "Synthesizes a WAV file per word using Azure Speech. Requires tts.key and tts.region in the config (or AZURE_SPEECH_KEY). Existing files are never rewritten.",
		RunE:  runAudio,
	}
}

func runAudio(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		result, err := d.Audio.Handle(ctx)
		if err != nil {
			return fmt.Errorf("generating audio: %w", err)
		}

		fmt.Printf("Audio files in %s\n", result.Dir)
		printSummary(result.Summary)
		return nil
	})
}
