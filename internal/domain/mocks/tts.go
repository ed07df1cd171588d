package mocks

import (
	"context"
	"sync"
)

// Synthesizer is a mock implementation of ports.Synthesizer.
type Synthesizer struct {
	mu    sync.Mutex
	Audio []byte
	Err   error
	Calls []string
}

// Synthesize records the text and returns the canned audio or error.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, text)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Audio, nil
}
