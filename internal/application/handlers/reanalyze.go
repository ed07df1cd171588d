package handlers

import (
	"context"
	"fmt"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/services"
)

// ReanalyzeHandler handles re-analysis of stored entries.
type ReanalyzeHandler struct {
	pipeline *services.Pipeline
}

// NewReanalyzeHandler creates a new reanalyze handler.
func NewReanalyzeHandler(pipeline *services.Pipeline) *ReanalyzeHandler {
	return &ReanalyzeHandler{pipeline: pipeline}
}

// ReanalyzeOptions selects what to re-analyze. ID targets a single row;
// PartOfSpeech re-derives labels instead of rewriting analyses and is
// valid for words only.
type ReanalyzeOptions struct {
	Kind         entities.Kind
	ID           int64
	PartOfSpeech bool
}

// ReanalyzeResult contains the result of a re-analysis run. Entry is set
// only for single-row runs.
type ReanalyzeResult struct {
	Summary *entities.RunSummary
	Entry   *entities.Entry
}

// Handle dispatches to the matching pipeline operation.
func (h *ReanalyzeHandler) Handle(ctx context.Context, opts ReanalyzeOptions) (*ReanalyzeResult, error) {
	if !opts.Kind.IsValid() {
		return nil, fmt.Errorf("unknown kind: %q (want word or grammar)", opts.Kind)
	}

	if opts.PartOfSpeech {
		if opts.Kind != entities.KindWord {
			return nil, fmt.Errorf("part-of-speech retagging applies to words only")
		}
		if opts.ID != 0 {
			return nil, fmt.Errorf("part-of-speech retagging cannot target a single id")
		}
		summary, err := h.pipeline.RetagPartsOfSpeech(ctx)
		if err != nil {
			return nil, err
		}
		return &ReanalyzeResult{Summary: summary}, nil
	}

	if opts.ID != 0 {
		entry, err := h.pipeline.ReanalyzeByID(ctx, opts.Kind, opts.ID)
		if err != nil {
			return nil, err
		}
		return &ReanalyzeResult{Entry: entry}, nil
	}

	summary, err := h.pipeline.ReanalyzeAll(ctx, opts.Kind)
	if err != nil {
		return nil, err
	}
	return &ReanalyzeResult{Summary: summary}, nil
}
