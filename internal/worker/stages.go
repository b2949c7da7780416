package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clipchimp/internal/analysis"
	"clipchimp/internal/download"
	"clipchimp/internal/events"
	"clipchimp/internal/library"
	"clipchimp/internal/logging"
	"clipchimp/internal/media/ffprobe"
	"clipchimp/internal/transcribe"
)

// MediaDownloader fetches a remote video. *download.Downloader satisfies it.
type MediaDownloader interface {
	Download(ctx context.Context, url string, progress func(download.Progress)) (download.Result, error)
}

// AudioExtractor produces derived media artifacts. *ffmpeg.Runner satisfies it.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error
	Thumbnail(ctx context.Context, inputPath, outputPath string, offsetSeconds float64) error
}

// Transcriber converts audio into a transcript. *transcribe.Runner satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, outputDir string) (*transcribe.Transcript, error)
}

// ReportAnalyzer runs content analysis. *analysis.Analyzer satisfies it.
type ReportAnalyzer interface {
	Analyze(ctx context.Context, videoTitle string, transcript *transcribe.Transcript, progress analysis.ProgressFunc) (*analysis.Report, error)
}

// Prober inspects a media file. Wrap ffprobe.Inspect with the resolved binary.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Services bundles everything the pipeline stages need.
type Services struct {
	Downloader  MediaDownloader
	Extractor   AudioExtractor
	Probe       Prober
	Transcriber Transcriber
	Analyzer    ReportAnalyzer
	Hub         *events.Hub
	Logger      *slog.Logger
	DataDir     string
}

// Pipeline stage and phase names.
const (
	PhaseDownload      = "download"
	PhaseTranscription = "transcription"
	PhaseAnalysis      = "analysis"
)

// BuildStages assembles the download, transcription, and analysis stages in
// pipeline order.
func BuildStages(svc Services) []Stage {
	logger := logging.WithComponent(svc.Logger, "worker")
	return []Stage{
		{
			Name:    PhaseDownload,
			From:    library.StatusPending,
			Working: library.StatusDownloading,
			Done:    library.StatusDownloaded,
			Run: func(ctx context.Context, video *library.Video) error {
				return runDownload(ctx, svc, logger, video)
			},
		},
		{
			Name:    PhaseTranscription,
			From:    library.StatusDownloaded,
			Working: library.StatusTranscribing,
			Done:    library.StatusTranscribed,
			Run: func(ctx context.Context, video *library.Video) error {
				return runTranscription(ctx, svc, logger, video)
			},
		},
		{
			Name:    PhaseAnalysis,
			From:    library.StatusTranscribed,
			Working: library.StatusAnalyzing,
			Done:    library.StatusAnalyzed,
			Run: func(ctx context.Context, video *library.Video) error {
				return runAnalysis(ctx, svc, logger, video)
			},
		},
	}
}

func runDownload(ctx context.Context, svc Services, logger *slog.Logger, video *library.Video) error {
	if svc.Downloader == nil {
		return errors.New("downloader not configured")
	}
	if video.SourceURL == "" {
		return errors.New("video has no source URL")
	}

	result, err := svc.Downloader.Download(ctx, video.SourceURL, func(p download.Progress) {
		if svc.Hub == nil {
			return
		}
		message := ""
		if p.Speed != "" {
			message = p.Speed
		}
		svc.Hub.Progress(video.ID, PhaseDownload, p.Percent, message)
	})
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	video.FilePath = result.FilePath
	if result.Title != "" && (video.Title == "" || video.Title == video.SourceURL) {
		video.Title = result.Title
	}

	if svc.Probe != nil {
		probed, err := svc.Probe(ctx, result.FilePath)
		if err != nil {
			logger.Warn("probe failed after download",
				logging.Int64(logging.FieldVideoID, video.ID),
				logging.Error(err),
			)
		} else {
			video.Format = probed.ContainerFormat()
			video.DurationSeconds = probed.DurationSeconds()
			video.SizeBytes = probed.SizeBytes()
		}
	}

	if svc.Extractor != nil && video.DurationSeconds > 0 {
		thumbPath := filepath.Join(svc.DataDir, "thumbnails", video.UUID+".jpg")
		offset := 5.0
		if video.DurationSeconds < 10 {
			offset = video.DurationSeconds / 2
		}
		if err := svc.Extractor.Thumbnail(ctx, video.FilePath, thumbPath, offset); err != nil {
			logger.Warn("thumbnail generation failed",
				logging.Int64(logging.FieldVideoID, video.ID),
				logging.Error(err),
			)
		} else {
			video.ThumbnailPath = thumbPath
		}
	}
	return nil
}

func runTranscription(ctx context.Context, svc Services, logger *slog.Logger, video *library.Video) error {
	if svc.Extractor == nil || svc.Transcriber == nil {
		return errors.New("transcription not configured")
	}
	if video.FilePath == "" {
		return errors.New("video has no media file")
	}
	if _, err := os.Stat(video.FilePath); err != nil {
		return fmt.Errorf("media file missing: %w", err)
	}

	if svc.Hub != nil {
		svc.Hub.Progress(video.ID, PhaseTranscription, 0, "extracting audio")
	}
	audioPath := filepath.Join(svc.DataDir, "audio", video.UUID+".wav")
	if err := svc.Extractor.ExtractAudio(ctx, video.FilePath, audioPath); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	video.AudioPath = audioPath

	if svc.Hub != nil {
		svc.Hub.Progress(video.ID, PhaseTranscription, 20, "running whisper")
	}
	transcriptsDir := filepath.Join(svc.DataDir, "transcripts")
	transcript, err := svc.Transcriber.Transcribe(ctx, audioPath, transcriptsDir)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	textPath := filepath.Join(transcriptsDir, video.UUID+".txt")
	if err := transcript.WriteText(textPath); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	video.TranscriptPath = textPath

	srtPath := filepath.Join(transcriptsDir, video.UUID+".srt")
	if err := transcript.WriteSRT(srtPath); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	video.SubtitlePath = srtPath

	if svc.Hub != nil {
		svc.Hub.Progress(video.ID, PhaseTranscription, 100, "transcript ready")
	}
	logger.Info("transcription finished",
		logging.Int64(logging.FieldVideoID, video.ID),
		logging.Int("segments", len(transcript.Segments)),
	)
	return nil
}

func runAnalysis(ctx context.Context, svc Services, logger *slog.Logger, video *library.Video) error {
	if svc.Analyzer == nil {
		return errors.New("analysis not configured")
	}
	transcript, err := loadTranscript(video)
	if err != nil {
		return err
	}

	report, err := svc.Analyzer.Analyze(ctx, video.Title, transcript, func(percent float64, message string) {
		if svc.Hub == nil {
			return
		}
		svc.Hub.Progress(video.ID, PhaseAnalysis, percent, message)
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	reportPath := filepath.Join(svc.DataDir, "analysis", video.UUID+".md")
	if err := analysis.WriteReport(reportPath, video.Title, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	video.AnalysisPath = reportPath
	video.Summary = report.Summary
	video.SuggestedTitle = report.SuggestedTitle
	if tags, err := json.Marshal(report.Tags); err == nil {
		video.TagsJSON = string(tags)
	}

	logger.Info("analysis finished",
		logging.Int64(logging.FieldVideoID, video.ID),
		logging.Int("sections", len(report.Sections)),
	)
	return nil
}

// loadTranscript reloads the whisper JSON written during transcription. The
// text transcript loses segment timing, so the JSON sidecar is authoritative.
func loadTranscript(video *library.Video) (*transcribe.Transcript, error) {
	if video.TranscriptPath == "" {
		return nil, errors.New("video has no transcript")
	}
	jsonPath := strings.TrimSuffix(video.TranscriptPath, filepath.Ext(video.TranscriptPath)) + ".json"
	if _, err := os.Stat(jsonPath); err == nil {
		return transcribe.ParseFile(jsonPath)
	}

	// Fall back to the plain text transcript as a single segment.
	data, err := os.ReadFile(video.TranscriptPath)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, errors.New("transcript is empty")
	}
	return &transcribe.Transcript{
		Text: text,
		Segments: []transcribe.Segment{
			{Start: 0, End: video.DurationSeconds, Text: text},
		},
	}, nil
}
