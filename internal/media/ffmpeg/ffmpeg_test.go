package ffmpeg

import (
	"context"
	"strings"
	"testing"
)

func TestExportClipRejectsInvalidRange(t *testing.T) {
	runner := NewRunner("ffmpeg")
	err := runner.ExportClip(context.Background(), "in.mp4", "out.mp4", 10, 5)
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
	if !strings.Contains(err.Error(), "invalid range") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractAudioRejectsEmptyPaths(t *testing.T) {
	runner := NewRunner("")
	if err := runner.ExtractAudio(context.Background(), "", "out.wav"); err == nil {
		t.Fatal("expected error for empty input")
	}
	if err := runner.ExtractAudio(context.Background(), "in.mp4", ""); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(12.5); got != "12.500" {
		t.Fatalf("formatSeconds = %q", got)
	}
	if got := formatSeconds(0); got != "0.000" {
		t.Fatalf("formatSeconds = %q", got)
	}
}
