package library

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestNewDownloadStartsPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	video, err := store.NewDownload(ctx, "https://example.com/watch?v=abc", "")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	if video.Status != StatusPending {
		t.Fatalf("status = %q, want %q", video.Status, StatusPending)
	}
	if video.UUID == "" {
		t.Fatal("uuid not assigned")
	}
	if video.Title != "https://example.com/watch?v=abc" {
		t.Fatalf("title fallback = %q", video.Title)
	}
	if video.CreatedAt.IsZero() || video.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}
}

func TestNewLocalFileStartsDownloaded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	video, err := store.NewLocalFile(ctx, "/media/talks/conference keynote.mp4")
	if err != nil {
		t.Fatalf("NewLocalFile: %v", err)
	}
	if video.Status != StatusDownloaded {
		t.Fatalf("status = %q, want %q", video.Status, StatusDownloaded)
	}
	if video.Title != "conference keynote" {
		t.Fatalf("inferred title = %q", video.Title)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	video, err := store.NewDownload(ctx, "https://example.com/v/1", "Demo")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}

	video.Status = StatusDownloaded
	video.FilePath = "/media/demo.mp4"
	video.DurationSeconds = 93.5
	video.SizeBytes = 1 << 20
	video.Format = "mp4"
	video.TagsJSON = `{"people":["Ada"],"topics":["compilers"]}`
	if err := store.Update(ctx, video); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.GetByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusDownloaded || got.FilePath != "/media/demo.mp4" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.DurationSeconds != 93.5 || got.SizeBytes != 1<<20 {
		t.Fatalf("numeric fields lost: %+v", got)
	}
	if got.TagsJSON == "" {
		t.Fatal("tags not persisted")
	}

	byUUID, err := store.GetByUUID(ctx, video.UUID)
	if err != nil {
		t.Fatalf("GetByUUID: %v", err)
	}
	if byUUID == nil || byUUID.ID != video.ID {
		t.Fatal("uuid lookup failed")
	}
}

func TestFindBySourceURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.NewDownload(ctx, "https://example.com/v/dup", ""); err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	found, err := store.FindBySourceURL(ctx, "https://example.com/v/dup")
	if err != nil {
		t.Fatalf("FindBySourceURL: %v", err)
	}
	if found == nil {
		t.Fatal("expected existing video")
	}
	missing, err := store.FindBySourceURL(ctx, "https://example.com/v/other")
	if err != nil {
		t.Fatalf("FindBySourceURL: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown url")
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.NewDownload(ctx, "https://example.com/v/1", "first")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	if _, err := store.NewDownload(ctx, "https://example.com/v/2", "second"); err != nil {
		t.Fatalf("NewDownload: %v", err)
	}

	next, err := store.NextForStatuses(ctx, StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("next = %+v, want id %d", next, first.ID)
	}

	none, err := store.NextForStatuses(ctx, StatusAnalyzing)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if none != nil {
		t.Fatal("expected nil for empty status")
	}
}

func TestResetStuckProcessingRollsBackOneStage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	video, err := store.NewDownload(ctx, "https://example.com/v/1", "stuck")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	video.Status = StatusTranscribing
	if err := store.Update(ctx, video); err != nil {
		t.Fatalf("Update: %v", err)
	}

	affected, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	got, err := store.GetByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusDownloaded {
		t.Fatalf("status = %q, want %q", got.Status, StatusDownloaded)
	}
}

func TestRetryFailed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	video, err := store.NewDownload(ctx, "https://example.com/v/1", "failing")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	video.SetFailed("download exploded")
	if err := store.Update(ctx, video); err != nil {
		t.Fatalf("Update: %v", err)
	}

	affected, err := store.RetryFailed(ctx, video.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("affected = %d, want 1", affected)
	}

	got, err := store.GetByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusPending || got.ErrorMessage != "" {
		t.Fatalf("retry did not reset video: %+v", got)
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.NewDownload(ctx, "https://example.com/v/1", "a"); err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	video, err := store.NewDownload(ctx, "https://example.com/v/2", "b")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	video.Status = StatusAnalyzed
	if err := store.Update(ctx, video); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[StatusPending] != 1 || stats[StatusAnalyzed] != 1 {
		t.Fatalf("stats = %v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Analyzed != 1 {
		t.Fatalf("health = %+v", health)
	}
}

func TestCheckHealthReportsSchema(t *testing.T) {
	store := newTestStore(t)

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("health = %+v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("missing columns: %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("integrity check failed")
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	video, err := store.NewDownload(ctx, "https://example.com/v/1", "gone")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	removed, err := store.Remove(ctx, video.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}
	again, err := store.Remove(ctx, video.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if again {
		t.Fatal("expected no-op removal")
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus("  Transcribing "); !ok || status != StatusTranscribing {
		t.Fatalf("ParseStatus = %q, %v", status, ok)
	}
	if _, ok := ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to fail")
	}
}
