package ports

import (
	"context"
	"errors"

	"github.com/karuta/ankigen/internal/domain/entities"
)

// ErrNotFound is returned by id-targeted operations on missing rows.
var ErrNotFound = errors.New("entry not found")

// EntryStore defines the durable storage interface for lexical entries.
// All operations are atomic per row; there are no multi-row transactions.
type EntryStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Insert stores a new entry, assigning its id and created_at.
	Insert(ctx context.Context, entry *entities.Entry) (int64, error)

	// GetAll returns every entry of the given kind ordered by id.
	GetAll(ctx context.Context, kind entities.Kind) ([]entities.Entry, error)

	// GetByID returns the entry with the given id, or nil if absent.
	GetByID(ctx context.Context, kind entities.Kind, id int64) (*entities.Entry, error)

	// FindWord returns the word row matching surface and reading, or nil.
	FindWord(ctx context.Context, surface, reading string) (*entities.Entry, error)

	// UpdateAnalysis replaces the analysis of an existing row.
	// created_at is never touched by updates.
	UpdateAnalysis(ctx context.Context, kind entities.Kind, id int64, analysis string) error

	// UpdatePartOfSpeech replaces the part-of-speech column of a word row.
	UpdatePartOfSpeech(ctx context.Context, id int64, partOfSpeech string) error

	// UpdateDetails replaces the pitch and part-of-speech of a word row.
	UpdateDetails(ctx context.Context, id int64, pitch, partOfSpeech string) error
}
