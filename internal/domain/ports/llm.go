// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"errors"

	"github.com/karuta/ankigen/internal/domain/entities"
)

var (
	// ErrResponseMalformed is returned when the remote model replies with
	// text that fails structural validation. Retrying cannot fix a
	// persistent misunderstanding between prompt and model, so callers
	// must not retry it.
	ErrResponseMalformed = errors.New("malformed response from language model")

	// ErrRetryExhausted is returned after the configured number of attempts
	// at a retryable operation all failed. It wraps the last error.
	ErrRetryExhausted = errors.New("retries exhausted")
)

// AnalysisClient defines the outbound call family against the remote model.
// Implementations are stateless and safe to share across concurrent callers.
type AnalysisClient interface {
	// Extract segments raw text into word and grammar candidates.
	// A structurally invalid reply yields ErrResponseMalformed.
	Extract(ctx context.Context, text string) (*entities.Extraction, error)

	// AnalyzeWord returns the free-text analysis for a word candidate.
	AnalyzeWord(ctx context.Context, word entities.WordCandidate) (string, error)

	// AnalyzeGrammar returns the free-text analysis for a grammar candidate.
	AnalyzeGrammar(ctx context.Context, grammar entities.GrammarCandidate) (string, error)

	// PartOfSpeech re-derives the part-of-speech labels for a word.
	PartOfSpeech(ctx context.Context, word entities.WordCandidate) ([]string, error)
}
