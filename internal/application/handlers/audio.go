package handlers

import (
	"context"

	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/services"
)

// AudioHandler handles incremental audio generation for word cards.
type AudioHandler struct {
	pipeline *services.Pipeline
	audioDir string
}

// NewAudioHandler creates a new audio handler.
func NewAudioHandler(pipeline *services.Pipeline, audioDir string) *AudioHandler {
	return &AudioHandler{pipeline: pipeline, audioDir: audioDir}
}

// AudioResult contains the result of an audio generation run.
type AudioResult struct {
	Dir     string
	Summary *entities.RunSummary
}

// Handle synthesizes audio for every word that has none yet.
func (h *AudioHandler) Handle(ctx context.Context) (*AudioResult, error) {
	summary, err := h.pipeline.GenerateMissingAudio(ctx, h.audioDir)
	if err != nil {
		return nil, err
	}
	return &AudioResult{Dir: h.audioDir, Summary: summary}, nil
}
