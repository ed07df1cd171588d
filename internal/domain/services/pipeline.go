package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/ports"
)

// Pipeline orchestrates extraction, analysis, persistence and deck
// generation. Analysis calls run on a fixed worker pool guarded by the
// Limiter; each item reaches exactly one terminal outcome and a failed
// item never aborts its siblings. Retry looping lives inside the
// analysis client, so the pipeline sees one terminal result per item.
type Pipeline struct {
	llm       ports.AnalysisClient
	store     ports.EntryStore
	limiter   *Limiter
	decks     ports.DeckWriter
	segmenter ports.Segmenter   // optional reading fallback
	tts       ports.Synthesizer // optional audio generation
	workers   int
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. segmenter and tts may be nil, which
// disables the reading fallback and audio generation respectively.
// A worker count below 1 is treated as 1.
func NewPipeline(llm ports.AnalysisClient, store ports.EntryStore, limiter *Limiter, decks ports.DeckWriter, segmenter ports.Segmenter, tts ports.Synthesizer, workers int, logger *slog.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		llm:       llm,
		store:     store,
		limiter:   limiter,
		decks:     decks,
		segmenter: segmenter,
		tts:       tts,
		workers:   workers,
		logger:    logger,
	}
}

// recorder collects per-item results from concurrent workers.
type recorder struct {
	mu      sync.Mutex
	summary entities.RunSummary
}

func newRecorder() *recorder {
	return &recorder{summary: entities.RunSummary{RunID: uuid.New().String()}}
}

func (r *recorder) add(result entities.ItemResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Results = append(r.summary.Results, result)
}

// ExtractAll extracts candidates from text once and processes both words
// and grammar points.
func (p *Pipeline) ExtractAll(ctx context.Context, text string) (*entities.RunSummary, error) {
	return p.extractAndProcess(ctx, text, true, true)
}

// ExtractWords extracts candidates from text and processes the words only.
func (p *Pipeline) ExtractWords(ctx context.Context, text string) (*entities.RunSummary, error) {
	return p.extractAndProcess(ctx, text, true, false)
}

// ExtractGrammar extracts candidates from text and processes the grammar
// points only.
func (p *Pipeline) ExtractGrammar(ctx context.Context, text string) (*entities.RunSummary, error) {
	return p.extractAndProcess(ctx, text, false, true)
}

func (p *Pipeline) extractAndProcess(ctx context.Context, text string, words, grammar bool) (*entities.RunSummary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is empty")
	}

	extraction, err := p.llm.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to extract candidates: %w", err)
	}

	rec := newRecorder()
	p.logger.Info("extraction complete",
		"run_id", rec.summary.RunID,
		"words", len(extraction.Words),
		"grammar", len(extraction.Grammar))

	if words {
		if err := p.processWords(ctx, rec, extraction.Words); err != nil {
			return &rec.summary, err
		}
	}
	if grammar {
		if err := p.processGrammar(ctx, rec, extraction.Grammar); err != nil {
			return &rec.summary, err
		}
	}

	if err := p.regenerateDecks(ctx, words, grammar); err != nil {
		return &rec.summary, err
	}
	return &rec.summary, nil
}

// processWords dedupes candidates by (word, kana), reconciles ones that
// already have a row, and analyzes and inserts the rest on the worker pool.
func (p *Pipeline) processWords(ctx context.Context, rec *recorder, candidates []entities.WordCandidate) error {
	var pending []entities.WordCandidate
	for _, cand := range groupWordCandidates(candidates) {
		cand.Kana = p.resolveReading(cand.Word, cand.Kana)

		existing, err := p.store.FindWord(ctx, cand.Word, cand.Kana)
		if err != nil {
			return fmt.Errorf("failed to look up word %q: %w", cand.Word, err)
		}
		if existing == nil {
			pending = append(pending, cand)
			continue
		}

		// The row already exists; refresh pitch and part of speech when
		// the new extraction disagrees, but never re-run the analysis.
		pos := entities.JoinPartsOfSpeech(cand.PartOfSpeech)
		outcome := entities.OutcomeUnchanged
		if (cand.Pitch != "" && cand.Pitch != existing.Pitch) || (pos != "" && pos != existing.PartOfSpeech) {
			pitch := cand.Pitch
			if pitch == "" {
				pitch = existing.Pitch
			}
			if pos == "" {
				pos = existing.PartOfSpeech
			}
			if err := p.store.UpdateDetails(ctx, existing.ID, pitch, pos); err != nil {
				return fmt.Errorf("failed to update word %q: %w", cand.Word, err)
			}
			outcome = entities.OutcomeUpdated
		}
		p.logger.Debug("word already stored", "word", cand.Word, "kana", cand.Kana, "outcome", outcome)
		rec.add(entities.ItemResult{
			Kind:    entities.KindWord,
			Surface: cand.Word,
			Reading: cand.Kana,
			Outcome: outcome,
		})
	}

	p.runPool(ctx, len(pending), func(ctx context.Context, i int) {
		cand := pending[i]
		result := entities.ItemResult{Kind: entities.KindWord, Surface: cand.Word, Reading: cand.Kana}

		analysis, err := p.guarded(ctx, func(ctx context.Context) (string, error) {
			return p.llm.AnalyzeWord(ctx, cand)
		})
		if err != nil {
			rec.add(p.failed(result, err))
			return
		}

		entry := entities.Entry{
			Kind:         entities.KindWord,
			Surface:      cand.Word,
			Reading:      cand.Kana,
			Pitch:        cand.Pitch,
			PartOfSpeech: entities.JoinPartsOfSpeech(cand.PartOfSpeech),
			Analysis:     analysis,
		}
		if _, err := p.store.Insert(ctx, &entry); err != nil {
			rec.add(p.failed(result, fmt.Errorf("failed to insert word %q: %w", cand.Word, err)))
			return
		}
		result.Outcome = entities.OutcomePersisted
		rec.add(result)
		p.logger.Info("word persisted", "id", entry.ID, "word", cand.Word, "kana", cand.Kana)
	})
	return nil
}

// processGrammar analyzes and inserts grammar candidates on the worker
// pool. Duplicates within the batch are collapsed by (grammar, kana).
func (p *Pipeline) processGrammar(ctx context.Context, rec *recorder, candidates []entities.GrammarCandidate) error {
	seen := make(map[string]bool, len(candidates))
	var pending []entities.GrammarCandidate
	for _, cand := range candidates {
		key := cand.Grammar + "\x00" + cand.Kana
		if cand.Grammar == "" || seen[key] {
			continue
		}
		seen[key] = true
		pending = append(pending, cand)
	}

	p.runPool(ctx, len(pending), func(ctx context.Context, i int) {
		cand := pending[i]
		result := entities.ItemResult{Kind: entities.KindGrammar, Surface: cand.Grammar, Reading: cand.Kana}

		analysis, err := p.guarded(ctx, func(ctx context.Context) (string, error) {
			return p.llm.AnalyzeGrammar(ctx, cand)
		})
		if err != nil {
			rec.add(p.failed(result, err))
			return
		}

		entry := entities.Entry{
			Kind:     entities.KindGrammar,
			Surface:  cand.Grammar,
			Reading:  cand.Kana,
			Analysis: analysis,
		}
		if _, err := p.store.Insert(ctx, &entry); err != nil {
			rec.add(p.failed(result, fmt.Errorf("failed to insert grammar %q: %w", cand.Grammar, err)))
			return
		}
		result.Outcome = entities.OutcomePersisted
		rec.add(result)
		p.logger.Info("grammar persisted", "id", entry.ID, "grammar", cand.Grammar)
	})
	return nil
}

// ReanalyzeAll re-runs the analysis for every stored entry of the given
// kind. A row is rewritten only when its analysis call succeeds.
func (p *Pipeline) ReanalyzeAll(ctx context.Context, kind entities.Kind) (*entities.RunSummary, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid kind: %s", kind)
	}
	entries, err := p.store.GetAll(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	rec := newRecorder()
	p.logger.Info("reanalyzing entries", "run_id", rec.summary.RunID, "kind", kind, "count", len(entries))

	p.runPool(ctx, len(entries), func(ctx context.Context, i int) {
		entry := entries[i]
		result := entities.ItemResult{Kind: kind, Surface: entry.Surface, Reading: entry.Reading}

		analysis, err := p.guarded(ctx, func(ctx context.Context) (string, error) {
			return p.analyze(ctx, &entry)
		})
		if err != nil {
			rec.add(p.failed(result, err))
			return
		}
		if analysis == entry.Analysis {
			result.Outcome = entities.OutcomeUnchanged
			rec.add(result)
			return
		}
		if err := p.store.UpdateAnalysis(ctx, kind, entry.ID, analysis); err != nil {
			rec.add(p.failed(result, fmt.Errorf("failed to update entry %d: %w", entry.ID, err)))
			return
		}
		result.Outcome = entities.OutcomeUpdated
		rec.add(result)
	})

	if err := p.regenerateDecks(ctx, kind == entities.KindWord, kind == entities.KindGrammar); err != nil {
		return &rec.summary, err
	}
	return &rec.summary, nil
}

// ReanalyzeByID re-runs the analysis for a single entry and returns the
// updated row. A missing id yields ports.ErrNotFound without any write.
func (p *Pipeline) ReanalyzeByID(ctx context.Context, kind entities.Kind, id int64) (*entities.Entry, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid kind: %s", kind)
	}
	entry, err := p.store.GetByID(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry %d: %w", id, err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%s %d: %w", kind, id, ports.ErrNotFound)
	}

	analysis, err := p.guarded(ctx, func(ctx context.Context) (string, error) {
		return p.analyze(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	if analysis != entry.Analysis {
		if err := p.store.UpdateAnalysis(ctx, kind, id, analysis); err != nil {
			return nil, fmt.Errorf("failed to update entry %d: %w", id, err)
		}
		entry.Analysis = analysis
	}

	if err := p.regenerateDecks(ctx, kind == entities.KindWord, kind == entities.KindGrammar); err != nil {
		return entry, err
	}
	return entry, nil
}

// RetagPartsOfSpeech re-derives part-of-speech labels for every stored
// word and rewrites rows whose labels changed.
func (p *Pipeline) RetagPartsOfSpeech(ctx context.Context) (*entities.RunSummary, error) {
	entries, err := p.store.GetAll(ctx, entities.KindWord)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}

	rec := newRecorder()
	p.logger.Info("retagging parts of speech", "run_id", rec.summary.RunID, "count", len(entries))

	p.runPool(ctx, len(entries), func(ctx context.Context, i int) {
		entry := entries[i]
		result := entities.ItemResult{Kind: entities.KindWord, Surface: entry.Surface, Reading: entry.Reading}
		cand := entities.WordCandidate{Word: entry.Surface, Kana: entry.Reading}

		if err := p.limiter.Acquire(ctx); err != nil {
			rec.add(p.failed(result, err))
			return
		}
		labels, err := p.llm.PartOfSpeech(ctx, cand)
		p.limiter.Release()
		if err != nil {
			rec.add(p.failed(result, err))
			return
		}

		pos := entities.JoinPartsOfSpeech(labels)
		if pos == entry.PartOfSpeech {
			result.Outcome = entities.OutcomeUnchanged
			rec.add(result)
			return
		}
		if err := p.store.UpdatePartOfSpeech(ctx, entry.ID, pos); err != nil {
			rec.add(p.failed(result, fmt.Errorf("failed to update word %d: %w", entry.ID, err)))
			return
		}
		result.Outcome = entities.OutcomeUpdated
		rec.add(result)
	})

	if err := p.regenerateDecks(ctx, true, false); err != nil {
		return &rec.summary, err
	}
	return &rec.summary, nil
}

// RegenerateDecks rewrites both deck files from the current store contents.
func (p *Pipeline) RegenerateDecks(ctx context.Context) error {
	return p.regenerateDecks(ctx, true, true)
}

func (p *Pipeline) regenerateDecks(ctx context.Context, words, grammar bool) error {
	kinds := make([]entities.Kind, 0, 2)
	if words {
		kinds = append(kinds, entities.KindWord)
	}
	if grammar {
		kinds = append(kinds, entities.KindGrammar)
	}
	for _, kind := range kinds {
		entries, err := p.store.GetAll(ctx, kind)
		if err != nil {
			return fmt.Errorf("failed to load %s entries: %w", kind, err)
		}
		if err := p.decks.Write(kind, entries); err != nil {
			return fmt.Errorf("failed to write %s deck: %w", kind, err)
		}
		p.logger.Info("deck written", "kind", kind, "entries", len(entries))
	}
	return nil
}

// GenerateMissingAudio synthesizes audio for every word row that has no
// file under dir yet. Files are named word_<id>.wav; existing files are
// never rewritten.
func (p *Pipeline) GenerateMissingAudio(ctx context.Context, dir string) (*entities.RunSummary, error) {
	if p.tts == nil {
		return nil, fmt.Errorf("audio synthesis is not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	entries, err := p.store.GetAll(ctx, entities.KindWord)
	if err != nil {
		return nil, fmt.Errorf("failed to load words: %w", err)
	}

	rec := newRecorder()
	p.logger.Info("generating audio", "run_id", rec.summary.RunID, "count", len(entries), "dir", dir)

	p.runPool(ctx, len(entries), func(ctx context.Context, i int) {
		entry := entries[i]
		result := entities.ItemResult{Kind: entities.KindWord, Surface: entry.Surface, Reading: entry.Reading}

		path := filepath.Join(dir, fmt.Sprintf("word_%d.wav", entry.ID))
		if _, err := os.Stat(path); err == nil {
			result.Outcome = entities.OutcomeUnchanged
			rec.add(result)
			return
		}

		text := entry.Reading
		if text == "" {
			text = entry.Surface
		}
		if err := p.limiter.Acquire(ctx); err != nil {
			rec.add(p.failed(result, err))
			return
		}
		audio, err := p.tts.Synthesize(ctx, text)
		p.limiter.Release()
		if err != nil {
			rec.add(p.failed(result, fmt.Errorf("failed to synthesize %q: %w", entry.Surface, err)))
			return
		}
		if err := os.WriteFile(path, audio, 0o644); err != nil {
			rec.add(p.failed(result, fmt.Errorf("failed to write %s: %w", path, err)))
			return
		}
		result.Outcome = entities.OutcomePersisted
		rec.add(result)
		p.logger.Info("audio written", "id", entry.ID, "word", entry.Surface, "path", path)
	})
	return &rec.summary, nil
}

// runPool runs fn(i) for i in [0, n) on at most p.workers goroutines.
func (p *Pipeline) runPool(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	if n == 0 {
		return
	}
	workers := p.workers
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(ctx, i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// guarded runs one analysis call under the limiter.
func (p *Pipeline) guarded(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	if err := p.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	defer p.limiter.Release()
	return call(ctx)
}

// analyze dispatches the re-analysis call for an existing entry.
func (p *Pipeline) analyze(ctx context.Context, entry *entities.Entry) (string, error) {
	switch entry.Kind {
	case entities.KindGrammar:
		return p.llm.AnalyzeGrammar(ctx, entities.GrammarCandidate{Grammar: entry.Surface, Kana: entry.Reading})
	default:
		return p.llm.AnalyzeWord(ctx, entities.WordCandidate{
			Word:         entry.Surface,
			Kana:         entry.Reading,
			Pitch:        entry.Pitch,
			PartOfSpeech: entry.PartsOfSpeech(),
		})
	}
}

// failed classifies an item error into its terminal outcome. Exhausted
// retries and cancellation are transient; malformed responses and store
// write errors are fatal for the item.
func (p *Pipeline) failed(result entities.ItemResult, err error) entities.ItemResult {
	result.Err = err
	switch {
	case errors.Is(err, ports.ErrResponseMalformed):
		result.Outcome = entities.OutcomeSkippedFatal
	case errors.Is(err, ports.ErrRetryExhausted):
		result.Outcome = entities.OutcomeSkippedTransient
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		result.Outcome = entities.OutcomeSkippedTransient
	default:
		result.Outcome = entities.OutcomeSkippedFatal
	}
	p.logger.Warn("item skipped",
		"kind", result.Kind,
		"surface", result.Surface,
		"outcome", result.Outcome,
		"error", err)
	return result
}

// resolveReading fills in a missing reading: a surface that already is
// kana reads as itself, otherwise the local segmenter is consulted.
func (p *Pipeline) resolveReading(surface, reading string) string {
	if reading != "" {
		return reading
	}
	if p.segmenter != nil {
		if r := p.segmenter.Reading(surface); r != "" {
			return r
		}
	}
	return reading
}

// groupWordCandidates collapses duplicate (word, kana) candidates into
// one, merging their part-of-speech labels and keeping the first
// non-empty pitch. Order of first appearance is preserved.
func groupWordCandidates(candidates []entities.WordCandidate) []entities.WordCandidate {
	type key struct{ word, kana string }
	index := make(map[key]int, len(candidates))
	grouped := make([]entities.WordCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Word == "" {
			continue
		}
		k := key{cand.Word, cand.Kana}
		i, ok := index[k]
		if !ok {
			index[k] = len(grouped)
			grouped = append(grouped, cand)
			continue
		}
		grouped[i].PartOfSpeech = append(grouped[i].PartOfSpeech, cand.PartOfSpeech...)
		if grouped[i].Pitch == "" {
			grouped[i].Pitch = cand.Pitch
		}
	}
	return grouped
}
