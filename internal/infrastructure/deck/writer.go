// Package deck serializes persisted entries into importable CSV decks.
package deck

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/infrastructure/config"
)

// headers are the CSV columns per kind. The id column lets the downstream
// flashcard tool re-import rows as updates instead of duplicates.
var headers = map[entities.Kind][]string{
	entities.KindWord:    {"id", "word", "kana", "analysis"},
	entities.KindGrammar: {"id", "grammar", "kana", "analysis"},
}

// Writer implements ports.DeckWriter, writing one CSV file per kind.
type Writer struct {
	wordsFile   string
	grammarFile string
}

// NewWriter creates a deck writer targeting the configured output files.
func NewWriter(cfg config.OutputConfig) *Writer {
	return &Writer{
		wordsFile:   cfg.WordsFile,
		grammarFile: cfg.GrammarFile,
	}
}

// Write (re)generates the deck file for the given kind from the entries.
func (w *Writer) Write(kind entities.Kind, entries []entities.Entry) error {
	path, err := w.fileFor(kind)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating deck file: %w", err)
	}

	if err := Encode(f, kind, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing deck file: %w", err)
	}
	return nil
}

// fileFor maps a kind to its configured output path.
func (w *Writer) fileFor(kind entities.Kind) (string, error) {
	switch kind {
	case entities.KindWord:
		return w.wordsFile, nil
	case entities.KindGrammar:
		return w.grammarFile, nil
	default:
		return "", fmt.Errorf("unknown kind: %q", kind)
	}
}

// Encode writes the deck CSV for the given kind to out. One row per entry,
// deterministic columns: id, surface, reading, analysis.
func Encode(out io.Writer, kind entities.Kind, entries []entities.Entry) error {
	header, ok := headers[kind]
	if !ok {
		return fmt.Errorf("unknown kind: %q", kind)
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing deck header: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Surface,
			e.Reading,
			e.Analysis,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing deck row %d: %w", e.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing deck: %w", err)
	}
	return nil
}
