package main

import (
	"context"
	"log/slog"
	"time"

	"clipchimp/internal/analysis"
	"clipchimp/internal/config"
	"clipchimp/internal/deps"
	"clipchimp/internal/download"
	"clipchimp/internal/events"
	"clipchimp/internal/logging"
	"clipchimp/internal/media/ffmpeg"
	"clipchimp/internal/media/ffprobe"
	"clipchimp/internal/services/ollama"
	"clipchimp/internal/transcribe"
	"clipchimp/internal/worker"
)

func buildStages(cfg *config.Config, hub *events.Hub, logger *slog.Logger) []worker.Stage {
	ffprobeBinary := deps.ResolvePath("ffprobe")

	downloader := download.New(download.Options{
		MediaDir:       cfg.Paths.MediaDir,
		OutputTemplate: cfg.Downloads.OutputTemplate,
		StartsPerMin:   int(cfg.Downloads.StartsPerMin),
		MaxConcurrent:  cfg.Downloads.MaxConcurrent,
	}, logger)

	generator := ollama.NewClient(ollama.Config{
		Endpoint:       cfg.Analysis.OllamaEndpoint,
		Model:          cfg.Analysis.Model,
		TimeoutSeconds: cfg.Analysis.TimeoutSeconds,
	})

	// Preflight the analysis model so a missing pull shows up in the logs
	// long before the first video reaches the analysis stage.
	go func() {
		checkCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := generator.CheckModel(checkCtx); err != nil {
			logging.WithComponent(logger, "analysis").Warn("analysis model unavailable",
				logging.Error(err),
			)
		}
	}()

	services := worker.Services{
		Downloader: downloader,
		Extractor:  ffmpeg.NewRunner(deps.ResolvePath("ffmpeg")),
		Probe: func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, ffprobeBinary, path)
		},
		Transcriber: transcribe.NewRunner(transcribe.Options{
			Binary:   deps.ResolvePath("whisper"),
			Model:    cfg.Transcription.Model,
			Language: cfg.Transcription.Language,
		}),
		Analyzer: analysis.New(generator, logger, analysis.Options{
			ChunkMinutes:       cfg.Analysis.ChunkMinutes,
			CustomInstructions: cfg.Analysis.CustomInstructions,
		}),
		Hub:     hub,
		Logger:  logger,
		DataDir: cfg.Paths.DataDir,
	}
	return worker.BuildStages(services)
}
