// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/karuta/ankigen/internal/domain/entities"
)

// AnalysisClient is a mock implementation of ports.AnalysisClient.
// Canned return values are used unless a per-call hook is set.
type AnalysisClient struct {
	mu sync.Mutex

	// Canned return values.
	Extraction  *entities.Extraction
	ExtractErr  error
	Analysis    string
	AnalyzeErr  error
	Labels      []string
	LabelsErr   error

	// Optional per-call hooks.
	AnalyzeWordFn    func(word entities.WordCandidate) (string, error)
	AnalyzeGrammarFn func(grammar entities.GrammarCandidate) (string, error)
	PartOfSpeechFn   func(word entities.WordCandidate) ([]string, error)

	ExtractCalls int
	AnalyzeCalls int
}

// Extract returns the configured extraction or error.
func (m *AnalysisClient) Extract(ctx context.Context, text string) (*entities.Extraction, error) {
	m.mu.Lock()
	m.ExtractCalls++
	m.mu.Unlock()
	if m.ExtractErr != nil {
		return nil, m.ExtractErr
	}
	return m.Extraction, nil
}

// AnalyzeWord returns the hook result, or the canned analysis.
func (m *AnalysisClient) AnalyzeWord(ctx context.Context, word entities.WordCandidate) (string, error) {
	m.countAnalyze()
	if m.AnalyzeWordFn != nil {
		return m.AnalyzeWordFn(word)
	}
	if m.AnalyzeErr != nil {
		return "", m.AnalyzeErr
	}
	return m.Analysis, nil
}

// AnalyzeGrammar returns the hook result, or the canned analysis.
func (m *AnalysisClient) AnalyzeGrammar(ctx context.Context, grammar entities.GrammarCandidate) (string, error) {
	m.countAnalyze()
	if m.AnalyzeGrammarFn != nil {
		return m.AnalyzeGrammarFn(grammar)
	}
	if m.AnalyzeErr != nil {
		return "", m.AnalyzeErr
	}
	return m.Analysis, nil
}

// PartOfSpeech returns the hook result, or the canned labels.
func (m *AnalysisClient) PartOfSpeech(ctx context.Context, word entities.WordCandidate) ([]string, error) {
	m.countAnalyze()
	if m.PartOfSpeechFn != nil {
		return m.PartOfSpeechFn(word)
	}
	if m.LabelsErr != nil {
		return nil, m.LabelsErr
	}
	return m.Labels, nil
}

func (m *AnalysisClient) countAnalyze() {
	m.mu.Lock()
	m.AnalyzeCalls++
	m.mu.Unlock()
}
