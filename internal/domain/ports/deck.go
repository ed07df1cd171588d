package ports

import "github.com/karuta/ankigen/internal/domain/entities"

// DeckWriter serializes already-validated entries into the external deck
// format. Writing is pure with respect to the store: it reads current rows
// and produces deterministic columns.
type DeckWriter interface {
	// Write (re)generates the deck file for the given kind.
	Write(kind entities.Kind, entries []entities.Entry) error
}
