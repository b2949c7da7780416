package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	base := []Option{
		WithRetryBackoff(time.Millisecond, 2*time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	}
	return NewClient(Config{Endpoint: server.URL, Model: "test-model"}, append(base, opts...)...)
}

func TestGenerateReturnsResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "hello", Done: true})
	}))

	got, err := client.Generate(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hello" {
		t.Fatalf("response = %q", got)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "recovered", Done: true})
	}))

	got, err := client.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("response = %q", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"test-model:latest"},{"name":"llama3.2:3b"}]}`))
	}))

	names, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(names) != 2 || names[0] != "test-model:latest" {
		t.Fatalf("names = %v", names)
	}
}

func TestCheckModelProbesGeneration(t *testing.T) {
	var probed atomic.Bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"test-model:latest"}]}`))
		case "/api/generate":
			probed.Store(true)
			_ = json.NewEncoder(w).Encode(generateResponse{Response: "OK", Done: true})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	if err := client.CheckModel(context.Background()); err != nil {
		t.Fatalf("CheckModel: %v", err)
	}
	if !probed.Load() {
		t.Fatal("expected generation probe")
	}
}

func TestCheckModelReportsMissingModel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"other:latest"}]}`))
	}))

	err := client.CheckModel(context.Background())
	if err == nil {
		t.Fatal("expected error for missing model")
	}
	if !strings.Contains(err.Error(), "not installed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeModelJSONStripsCodeFences(t *testing.T) {
	var parsed struct {
		Title string `json:"title"`
	}
	payload := "```json\n{\"title\": \"Fenced\"}\n```"
	if err := DecodeModelJSON(payload, &parsed); err != nil {
		t.Fatalf("DecodeModelJSON: %v", err)
	}
	if parsed.Title != "Fenced" {
		t.Fatalf("title = %q", parsed.Title)
	}
}

func TestDecodeModelJSONExtractsEmbeddedObject(t *testing.T) {
	var parsed struct {
		OK bool `json:"ok"`
	}
	payload := `Sure! Here is the JSON you asked for: {"ok": true} Hope that helps.`
	if err := DecodeModelJSON(payload, &parsed); err != nil {
		t.Fatalf("DecodeModelJSON: %v", err)
	}
	if !parsed.OK {
		t.Fatal("expected ok=true")
	}
}

func TestDecodeModelJSONRejectsGarbage(t *testing.T) {
	var parsed map[string]any
	if err := DecodeModelJSON("no json here at all", &parsed); err == nil {
		t.Fatal("expected error")
	}
}
