package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"clipchimp/internal/events"
	"clipchimp/internal/library"
)

func newTestServer(t *testing.T) (*Server, *library.Store, *events.Hub) {
	t.Helper()
	store, err := library.OpenPath(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	hub := events.NewHub(0)
	t.Cleanup(hub.Close)

	srv, err := New(Options{Host: "127.0.0.1"}, store, hub, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, store, hub
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestStatusReportsLibraryCounts(t *testing.T) {
	srv, store, _ := newTestServer(t)
	if _, err := store.NewDownload(context.Background(), "https://example.com/v/1", "one"); err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	status := decodeBody[StatusResponse](t, resp)
	if !status.Running {
		t.Fatal("expected running")
	}
	if status.Library.Total != 1 || status.Library.Pending != 1 {
		t.Fatalf("library counts = %+v", status.Library)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
}

func TestSubmitDownloadAndDuplicateGuard(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	payload := []byte(`{"url":"https://example.com/watch?v=abc"}`)
	resp, err := http.Post(ts.URL+"/api/downloads", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody[VideoResponse](t, resp)
	if created.Video.Status != string(library.StatusPending) {
		t.Fatalf("status = %q", created.Video.Status)
	}

	resp, err = http.Post(ts.URL+"/api/downloads", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST dup: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.StatusCode)
	}
}

func TestSubmitDownloadRejectsBadURL(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, body := range []string{`{}`, `{"url":"not a url"}`, `{"url":"/relative"}`} {
		resp, err := http.Post(ts.URL+"/api/downloads", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestLibraryListAndFilter(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()
	if _, err := store.NewDownload(ctx, "https://example.com/v/1", "one"); err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	second, err := store.NewDownload(ctx, "https://example.com/v/2", "two")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}
	second.Status = library.StatusAnalyzed
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/library")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	all := decodeBody[LibraryResponse](t, resp)
	if len(all.Videos) != 2 {
		t.Fatalf("len = %d, want 2", len(all.Videos))
	}

	resp, err = http.Get(ts.URL + "/api/library?status=analyzed")
	if err != nil {
		t.Fatalf("GET filtered: %v", err)
	}
	filtered := decodeBody[LibraryResponse](t, resp)
	if len(filtered.Videos) != 1 || filtered.Videos[0].Title != "two" {
		t.Fatalf("filtered = %+v", filtered.Videos)
	}

	resp, err = http.Get(ts.URL + "/api/library?status=bogus")
	if err != nil {
		t.Fatalf("GET bogus: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus filter status = %d, want 400", resp.StatusCode)
	}
}

func TestLibraryItemGetAndDelete(t *testing.T) {
	srv, store, _ := newTestServer(t)
	video, err := store.NewDownload(context.Background(), "https://example.com/v/1", "one")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	itemURL := ts.URL + "/api/library/" + strconv.FormatInt(video.ID, 10)

	resp, err := http.Get(itemURL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	got := decodeBody[VideoResponse](t, resp)
	if got.Video.UUID != video.UUID {
		t.Fatalf("uuid = %q, want %q", got.Video.UUID, video.UUID)
	}

	req, _ := http.NewRequest(http.MethodDelete, itemURL, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, err = http.Get(itemURL)
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRequeueTranscribeRequiresMedia(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()
	video, err := store.NewDownload(ctx, "https://example.com/v/1", "one")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	base := ts.URL + "/api/library/" + strconv.FormatInt(video.ID, 10)

	// No media file yet.
	resp, err := http.Post(base+"/transcribe", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	video.Status = library.StatusAnalyzed
	video.FilePath = "/media/one.mp4"
	if err := store.Update(ctx, video); err != nil {
		t.Fatalf("Update: %v", err)
	}

	resp, err = http.Post(base+"/transcribe", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	requeued := decodeBody[VideoResponse](t, resp)
	if requeued.Video.Status != string(library.StatusDownloaded) {
		t.Fatalf("status = %q, want downloaded", requeued.Video.Status)
	}
}

func TestRetryOnlyFailedVideos(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()
	video, err := store.NewDownload(ctx, "https://example.com/v/1", "one")
	if err != nil {
		t.Fatalf("NewDownload: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	retryURL := ts.URL + "/api/library/" + strconv.FormatInt(video.ID, 10) + "/retry"

	resp, err := http.Post(retryURL, "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}

	video.SetFailed("network error")
	if err := store.Update(ctx, video); err != nil {
		t.Fatalf("Update: %v", err)
	}
	resp, err = http.Post(retryURL, "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	retried := decodeBody[VideoResponse](t, resp)
	if retried.Video.Status != string(library.StatusPending) {
		t.Fatalf("status = %q, want pending", retried.Video.Status)
	}
	if retried.Video.ErrorMessage != "" {
		t.Fatalf("error message = %q, want empty", retried.Video.ErrorMessage)
	}
}

func TestSettingsCRUD(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	put, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings/theme", strings.NewReader(`{"value":"dark"}`))
	resp, err := http.DefaultClient.Do(put)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/settings/theme")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	setting := decodeBody[SettingResponse](t, resp)
	if setting.Value != "dark" {
		t.Fatalf("value = %q", setting.Value)
	}

	resp, err = http.Get(ts.URL + "/api/settings")
	if err != nil {
		t.Fatalf("GET all: %v", err)
	}
	all := decodeBody[map[string]map[string]string](t, resp)
	if all["settings"]["theme"] != "dark" {
		t.Fatalf("settings = %v", all)
	}

	del, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/settings/theme", nil)
	resp, err = http.DefaultClient.Do(del)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/settings/theme")
	if err != nil {
		t.Fatalf("GET deleted: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestEventStreamReplaysAndFollows(t *testing.T) {
	srv, _, hub := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	hub.Progress(1, "download", 10, "early")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events?since=0"
	conn, err := websocket.Dial(wsURL, "", ts.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first events.Event
	if err := websocket.JSON.Receive(conn, &first); err != nil {
		t.Fatalf("receive replay: %v", err)
	}
	if first.Message != "early" {
		t.Fatalf("replayed message = %q", first.Message)
	}

	hub.Progress(1, "download", 50, "live")
	var second events.Event
	if err := websocket.JSON.Receive(conn, &second); err != nil {
		t.Fatalf("receive live: %v", err)
	}
	if second.Message != "live" {
		t.Fatalf("live message = %q", second.Message)
	}
	if second.Sequence <= first.Sequence {
		t.Fatalf("sequences not increasing: %d then %d", first.Sequence, second.Sequence)
	}
}
