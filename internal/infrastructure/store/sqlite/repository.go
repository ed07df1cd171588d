// Package sqlite provides a SQLite implementation of the EntryStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.EntryStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Words (dictionary-form vocabulary entries)
	CREATE TABLE IF NOT EXISTS words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word TEXT NOT NULL,
		kana TEXT NOT NULL,
		pitch TEXT NOT NULL DEFAULT '0',
		part_of_speech TEXT NOT NULL DEFAULT '',
		analysis TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE(word, kana)
	);
	CREATE INDEX IF NOT EXISTS idx_words_surface ON words(word, kana);

	-- Grammar points
	CREATE TABLE IF NOT EXISTS grammar (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word TEXT NOT NULL,
		kana TEXT NOT NULL,
		analysis TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// tableFor maps a kind to its table name.
func tableFor(kind entities.Kind) (string, error) {
	switch kind {
	case entities.KindWord:
		return "words", nil
	case entities.KindGrammar:
		return "grammar", nil
	default:
		return "", fmt.Errorf("unknown kind: %q", kind)
	}
}

// Insert stores a new entry, assigning its id and created_at.
func (r *Repository) Insert(ctx context.Context, entry *entities.Entry) (int64, error) {
	now := timeNow().UTC()

	var res sql.Result
	var err error
	switch entry.Kind {
	case entities.KindWord:
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO words (word, kana, pitch, part_of_speech, analysis, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.Surface, entry.Reading, entry.Pitch, entry.PartOfSpeech, entry.Analysis, now, now,
		)
	case entities.KindGrammar:
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO grammar (word, kana, analysis, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			entry.Surface, entry.Reading, entry.Analysis, now, now,
		)
	default:
		return 0, fmt.Errorf("unknown kind: %q", entry.Kind)
	}
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", entry.Kind, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}

	entry.ID = id
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return id, nil
}

// GetAll returns every entry of the given kind ordered by id.
func (r *Repository) GetAll(ctx context.Context, kind entities.Kind) ([]entities.Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if kind == entities.KindWord {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, word, kana, pitch, part_of_speech, analysis, created_at, updated_at
			FROM words ORDER BY id`)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, word, kana, analysis, created_at, updated_at
			FROM grammar ORDER BY id`)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var entries []entities.Entry
	for rows.Next() {
		entry, err := scanEntry(rows, kind)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return entries, nil
}

// GetByID returns the entry with the given id, or nil if absent.
func (r *Repository) GetByID(ctx context.Context, kind entities.Kind, id int64) (*entities.Entry, error) {
	if _, err := tableFor(kind); err != nil {
		return nil, err
	}

	var rows *sql.Rows
	var err error
	if kind == entities.KindWord {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, word, kana, pitch, part_of_speech, analysis, created_at, updated_at
			FROM words WHERE id = ?`, id)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, word, kana, analysis, created_at, updated_at
			FROM grammar WHERE id = ?`, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s by id: %w", kind, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanEntry(rows, kind)
}

// FindWord returns the word row matching surface and reading, or nil.
func (r *Repository) FindWord(ctx context.Context, surface, reading string) (*entities.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, word, kana, pitch, part_of_speech, analysis, created_at, updated_at
		FROM words WHERE word = ? AND kana = ? LIMIT 1`, surface, reading)
	if err != nil {
		return nil, fmt.Errorf("querying word: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanEntry(rows, entities.KindWord)
}

// UpdateAnalysis replaces the analysis of an existing row, touching only
// updated_at. created_at is never modified by updates.
func (r *Repository) UpdateAnalysis(ctx context.Context, kind entities.Kind, id int64, analysis string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET analysis = ?, updated_at = ? WHERE id = ?", table)
	if _, err := r.db.ExecContext(ctx, query, analysis, timeNow().UTC(), id); err != nil {
		return fmt.Errorf("updating %s analysis: %w", kind, err)
	}
	return nil
}

// UpdatePartOfSpeech replaces the part-of-speech column of a word row.
func (r *Repository) UpdatePartOfSpeech(ctx context.Context, id int64, partOfSpeech string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE words SET part_of_speech = ?, updated_at = ? WHERE id = ?",
		partOfSpeech, timeNow().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating part of speech: %w", err)
	}
	return nil
}

// UpdateDetails replaces the pitch and part-of-speech of a word row.
func (r *Repository) UpdateDetails(ctx context.Context, id int64, pitch, partOfSpeech string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE words SET pitch = ?, part_of_speech = ?, updated_at = ? WHERE id = ?",
		pitch, partOfSpeech, timeNow().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating word details: %w", err)
	}
	return nil
}

// scanEntry reads one row into an Entry for the given kind.
func scanEntry(rows *sql.Rows, kind entities.Kind) (*entities.Entry, error) {
	entry := entities.Entry{Kind: kind}
	var err error
	if kind == entities.KindWord {
		err = rows.Scan(
			&entry.ID,
			&entry.Surface,
			&entry.Reading,
			&entry.Pitch,
			&entry.PartOfSpeech,
			&entry.Analysis,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		)
	} else {
		err = rows.Scan(
			&entry.ID,
			&entry.Surface,
			&entry.Reading,
			&entry.Analysis,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", kind, err)
	}
	return &entry, nil
}
