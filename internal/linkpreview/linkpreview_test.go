package linkpreview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Fallback Title</title>
  <meta property="og:title" content="Stream Highlights">
  <meta property="og:description" content="The best moments from last night.">
  <meta property="og:image" content="https://cdn.example.com/thumb.jpg">
  <meta property="og:site_name" content="ExampleTube">
</head>
<body></body>
</html>`

const bareNoOGPage = `<!DOCTYPE html>
<html>
<head>
  <title>Plain Page</title>
  <meta name="description" content="A page without open graph tags.">
</head>
<body></body>
</html>`

func TestFetchExtractsOpenGraph(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	preview, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if preview.Title != "Stream Highlights" {
		t.Fatalf("title = %q", preview.Title)
	}
	if preview.Description != "The best moments from last night." {
		t.Fatalf("description = %q", preview.Description)
	}
	if preview.ImageURL != "https://cdn.example.com/thumb.jpg" {
		t.Fatalf("image = %q", preview.ImageURL)
	}
	if preview.SiteName != "ExampleTube" {
		t.Fatalf("site = %q", preview.SiteName)
	}
}

func TestFetchFallsBackToTitleTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(bareNoOGPage))
	}))
	defer server.Close()

	preview, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if preview.Title != "Plain Page" {
		t.Fatalf("title = %q", preview.Title)
	}
	if preview.Description != "A page without open graph tags." {
		t.Fatalf("description = %q", preview.Description)
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}
