// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/services"
)

// ExtractHandler handles vocabulary extraction from a text file.
type ExtractHandler struct {
	pipeline *services.Pipeline
}

// NewExtractHandler creates a new extract handler.
func NewExtractHandler(pipeline *services.Pipeline) *ExtractHandler {
	return &ExtractHandler{pipeline: pipeline}
}

// ExtractOptions selects which candidate kinds to process. With neither
// flag set, both kinds are processed.
type ExtractOptions struct {
	WordsOnly   bool
	GrammarOnly bool
}

// ExtractResult contains the result of an extraction run.
type ExtractResult struct {
	FilePath string
	Summary  *entities.RunSummary
}

// Handle reads the file and runs the extraction pipeline over its text.
func (h *ExtractHandler) Handle(ctx context.Context, filePath string, opts ExtractOptions) (*ExtractResult, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("accessing file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("file is empty: %s", absPath)
	}

	var summary *entities.RunSummary
	switch {
	case opts.WordsOnly && !opts.GrammarOnly:
		summary, err = h.pipeline.ExtractWords(ctx, text)
	case opts.GrammarOnly && !opts.WordsOnly:
		summary, err = h.pipeline.ExtractGrammar(ctx, text)
	default:
		summary, err = h.pipeline.ExtractAll(ctx, text)
	}
	if err != nil {
		return nil, err
	}

	return &ExtractResult{FilePath: absPath, Summary: summary}, nil
}
