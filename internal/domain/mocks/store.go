package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/karuta/ankigen/internal/domain/entities"
)

// EntryStore is an in-memory implementation of ports.EntryStore.
type EntryStore struct {
	mu     sync.Mutex
	nextID map[entities.Kind]int64
	rows   map[entities.Kind]map[int64]entities.Entry

	// InsertErr, when set, makes Insert fail.
	InsertErr error
	// UpdateErr, when set, makes update operations fail.
	UpdateErr error

	Inserts int
	Updates int
}

// NewEntryStore returns an empty in-memory store.
func NewEntryStore() *EntryStore {
	return &EntryStore{
		nextID: map[entities.Kind]int64{entities.KindWord: 1, entities.KindGrammar: 1},
		rows: map[entities.Kind]map[int64]entities.Entry{
			entities.KindWord:    {},
			entities.KindGrammar: {},
		},
	}
}

// EnsureSchema is a no-op for the in-memory store.
func (s *EntryStore) EnsureSchema(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *EntryStore) Close() error { return nil }

// Insert assigns the next id for the entry's kind and stores it.
func (s *EntryStore) Insert(ctx context.Context, entry *entities.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return 0, s.InsertErr
	}
	id := s.nextID[entry.Kind]
	s.nextID[entry.Kind] = id + 1
	entry.ID = id
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	s.rows[entry.Kind][id] = *entry
	s.Inserts++
	return id, nil
}

// GetAll returns entries of the kind ordered by id.
func (s *EntryStore) GetAll(ctx context.Context, kind entities.Kind) ([]entities.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Entry
	for id := int64(1); id < s.nextID[kind]; id++ {
		if e, ok := s.rows[kind][id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetByID returns the entry or nil when absent.
func (s *EntryStore) GetByID(ctx context.Context, kind entities.Kind, id int64) (*entities.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.rows[kind][id]; ok {
		copied := e
		return &copied, nil
	}
	return nil, nil
}

// FindWord returns the word row matching surface and reading, or nil.
func (s *EntryStore) FindWord(ctx context.Context, surface, reading string) (*entities.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.rows[entities.KindWord] {
		if e.Surface == surface && e.Reading == reading {
			copied := e
			return &copied, nil
		}
	}
	return nil, nil
}

// UpdateAnalysis replaces the analysis of an existing row.
func (s *EntryStore) UpdateAnalysis(ctx context.Context, kind entities.Kind, id int64, analysis string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	e, ok := s.rows[kind][id]
	if !ok {
		return nil
	}
	e.Analysis = analysis
	e.UpdatedAt = time.Now()
	s.rows[kind][id] = e
	s.Updates++
	return nil
}

// UpdatePartOfSpeech replaces the part-of-speech column of a word row.
func (s *EntryStore) UpdatePartOfSpeech(ctx context.Context, id int64, partOfSpeech string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	e, ok := s.rows[entities.KindWord][id]
	if !ok {
		return nil
	}
	e.PartOfSpeech = partOfSpeech
	e.UpdatedAt = time.Now()
	s.rows[entities.KindWord][id] = e
	s.Updates++
	return nil
}

// UpdateDetails replaces the pitch and part-of-speech of a word row.
func (s *EntryStore) UpdateDetails(ctx context.Context, id int64, pitch, partOfSpeech string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	e, ok := s.rows[entities.KindWord][id]
	if !ok {
		return nil
	}
	e.Pitch = pitch
	e.PartOfSpeech = partOfSpeech
	e.UpdatedAt = time.Now()
	s.rows[entities.KindWord][id] = e
	s.Updates++
	return nil
}
