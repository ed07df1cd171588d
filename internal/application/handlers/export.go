package handlers

import (
	"context"

	"github.com/karuta/ankigen/internal/domain/services"
	"github.com/karuta/ankigen/internal/infrastructure/config"
)

// ExportHandler handles deck regeneration.
type ExportHandler struct {
	pipeline *services.Pipeline
	output   config.OutputConfig
}

// NewExportHandler creates a new export handler.
func NewExportHandler(pipeline *services.Pipeline, output config.OutputConfig) *ExportHandler {
	return &ExportHandler{pipeline: pipeline, output: output}
}

// ExportResult names the files that were written.
type ExportResult struct {
	WordsFile   string
	GrammarFile string
}

// Handle rewrites both deck files from the current store contents.
func (h *ExportHandler) Handle(ctx context.Context) (*ExportResult, error) {
	if err := h.pipeline.RegenerateDecks(ctx); err != nil {
		return nil, err
	}
	return &ExportResult{
		WordsFile:   h.output.WordsFile,
		GrammarFile: h.output.GrammarFile,
	}, nil
}
