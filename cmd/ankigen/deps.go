package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/karuta/ankigen/internal/application/handlers"
	"github.com/karuta/ankigen/internal/domain/entities"
	"github.com/karuta/ankigen/internal/domain/ports"
	"github.com/karuta/ankigen/internal/domain/services"
	"github.com/karuta/ankigen/internal/infrastructure/config"
	"github.com/karuta/ankigen/internal/infrastructure/deck"
	"github.com/karuta/ankigen/internal/infrastructure/llm/openrouter"
	"github.com/karuta/ankigen/internal/infrastructure/segmenter/kagome"
	"github.com/karuta/ankigen/internal/infrastructure/store/sqlite"
	"github.com/karuta/ankigen/internal/infrastructure/tts/azure"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config    *config.Config
	Extract   *handlers.ExtractHandler
	Reanalyze *handlers.ReanalyzeHandler
	Export    *handlers.ExportHandler
	Audio     *handlers.AudioHandler
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger()

	repo, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	llmClient, err := openrouter.NewClient(cfg.LLM, cfg.Processing, logger)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	limiter := services.NewLimiter(cfg.Processing.ConcurrentRequests, cfg.Processing.RequestDelay())

	// The dictionary segmenter is a best-effort fallback; without it,
	// candidates with a missing kana reading keep an empty reading.
	var segmenter ports.Segmenter
	if seg, err := kagome.NewSegmenter(); err != nil {
		logger.Warn("segmenter unavailable, reading fallback disabled", "error", err)
	} else {
		segmenter = seg
	}

	var tts ports.Synthesizer
	if cfg.TTS.Enabled() {
		ttsClient, err := azure.NewClient(cfg.TTS, cfg.Processing.RequestTimeout())
		if err != nil {
			return fmt.Errorf("creating tts client: %w", err)
		}
		tts = ttsClient
	}

	decks := deck.NewWriter(cfg.Output)
	pipeline := services.NewPipeline(llmClient, repo, limiter, decks, segmenter, tts, cfg.Processing.ConcurrentRequests, logger)

	deps := &Deps{
		Config:    cfg,
		Extract:   handlers.NewExtractHandler(pipeline),
		Reanalyze: handlers.NewReanalyzeHandler(pipeline),
		Export:    handlers.NewExportHandler(pipeline, cfg.Output),
		Audio:     handlers.NewAudioHandler(pipeline, cfg.Output.AudioDir),
	}

	return fn(deps)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if globalVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printSummary reports a run's per-outcome counts and failures.
func printSummary(summary *entities.RunSummary) {
	fmt.Printf("Persisted: %d  Updated: %d  Unchanged: %d\n",
		summary.Count(entities.OutcomePersisted),
		summary.Count(entities.OutcomeUpdated),
		summary.Count(entities.OutcomeUnchanged))

	failures := summary.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Printf("Skipped %d item(s):\n", len(failures))
	for _, f := range failures {
		fmt.Printf("  [%s] %s: %v\n", f.Kind, f.Surface, f.Err)
	}
}
