package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Runner shells out to a resolved ffmpeg binary.
type Runner struct {
	binary string
}

// NewRunner returns a Runner for the given ffmpeg binary path. An empty path
// falls back to the bare command name.
func NewRunner(binary string) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{binary: binary}
}

// ExtractAudio converts the input's audio track into a 16 kHz mono WAV file,
// the input format whisper transcription expects.
func (r *Runner) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	if err := validatePaths(inputPath, outputPath); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	args := []string{
		"-y", "-v", "error", "-hide_banner",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	}
	return r.run(ctx, "extract audio", args)
}

// ExportClip copies a time range of the input into a new container without
// re-encoding. Times are in seconds from the start of the input.
func (r *Runner) ExportClip(ctx context.Context, inputPath, outputPath string, startSeconds, endSeconds float64) error {
	if err := validatePaths(inputPath, outputPath); err != nil {
		return fmt.Errorf("export clip: %w", err)
	}
	if startSeconds < 0 || endSeconds <= startSeconds {
		return fmt.Errorf("export clip: invalid range %v..%v", startSeconds, endSeconds)
	}
	args := []string{
		"-y", "-v", "error", "-hide_banner",
		"-ss", formatSeconds(startSeconds),
		"-to", formatSeconds(endSeconds),
		"-i", inputPath,
		"-c", "copy",
		outputPath,
	}
	return r.run(ctx, "export clip", args)
}

// Thumbnail captures a single frame at the given offset as a JPEG.
func (r *Runner) Thumbnail(ctx context.Context, inputPath, outputPath string, offsetSeconds float64) error {
	if err := validatePaths(inputPath, outputPath); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	if offsetSeconds < 0 {
		offsetSeconds = 0
	}
	args := []string{
		"-y", "-v", "error", "-hide_banner",
		"-ss", formatSeconds(offsetSeconds),
		"-i", inputPath,
		"-frames:v", "1",
		"-q:v", "3",
		outputPath,
	}
	return r.run(ctx, "thumbnail", args)
}

func (r *Runner) run(ctx context.Context, operation string, args []string) error {
	if dir := filepath.Dir(args[len(args)-1]); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ffmpeg %s: create output dir: %w", operation, err)
		}
	}
	cmd := exec.CommandContext(ctx, r.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", operation, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func validatePaths(inputPath, outputPath string) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("empty input path")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("empty output path")
	}
	return nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
