package ports

import "context"

// Synthesizer turns kana text into audio for deck cards.
type Synthesizer interface {
	// Synthesize returns WAV audio for the given text.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
