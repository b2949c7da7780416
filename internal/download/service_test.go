package download

import (
	"context"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

func TestNewAppliesDefaults(t *testing.T) {
	d := New(Options{MediaDir: "/media"}, nil)
	if d.outputTemplate != "%(title)s.%(ext)s" {
		t.Fatalf("template = %q", d.outputTemplate)
	}
	if d.limiter == nil {
		t.Fatal("limiter not configured")
	}
}

func TestDownloadRejectsEmptyURL(t *testing.T) {
	d := New(Options{MediaDir: t.TempDir()}, nil)
	if _, err := d.Download(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestDownloadHonorsCancelledContext(t *testing.T) {
	d := New(Options{MediaDir: t.TempDir(), StartsPerMin: 1}, nil)
	// Drain the limiter's single burst token so Wait must block.
	if !d.limiter.Allow() {
		t.Fatal("expected initial token")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Download(ctx, "https://example.com/v/1", nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestSnapshotProgress(t *testing.T) {
	title := "Example Video"
	update := ytdlp.ProgressUpdate{
		DownloadedBytes: 50,
		TotalBytes:      200,
		Started:         time.Now().Add(-2 * time.Second),
		Info:            &ytdlp.ExtractedInfo{Title: &title},
	}

	snapshot := snapshotProgress(update)
	if snapshot.Percent != 25 {
		t.Fatalf("percent = %v, want 25", snapshot.Percent)
	}
	if snapshot.Title != "Example Video" {
		t.Fatalf("title = %q", snapshot.Title)
	}
	if snapshot.Speed == "" {
		t.Fatal("speed not computed")
	}
}
