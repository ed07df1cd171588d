package mocks

import (
	"sync"

	"github.com/karuta/ankigen/internal/domain/entities"
)

// DeckWriter is a mock implementation of ports.DeckWriter that records
// what was written per kind.
type DeckWriter struct {
	mu       sync.Mutex
	Written  map[entities.Kind][]entities.Entry
	WriteErr error
}

// NewDeckWriter returns an empty recording deck writer.
func NewDeckWriter() *DeckWriter {
	return &DeckWriter{Written: map[entities.Kind][]entities.Entry{}}
}

// Write records the entries for the kind.
func (w *DeckWriter) Write(kind entities.Kind, entries []entities.Entry) error {
	if w.WriteErr != nil {
		return w.WriteErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Written[kind] = entries
	return nil
}
