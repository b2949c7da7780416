package linkpreview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Preview holds the Open Graph metadata scraped from a page.
type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	SiteName    string `json:"site_name"`
}

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; ClipChimp/1.0)"
)

// Fetcher retrieves link previews over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher. A nil client gets a default with a sane
// timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{client: client}
}

// Fetch loads the page and extracts its Open Graph metadata, falling back to
// the document title when og:title is absent.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (Preview, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return Preview{}, errors.New("linkpreview: empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Preview{}, fmt.Errorf("linkpreview: new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return Preview{}, fmt.Errorf("linkpreview: fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Preview{}, fmt.Errorf("linkpreview: fetch %s: http %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Preview{}, fmt.Errorf("linkpreview: parse %s: %w", pageURL, err)
	}

	preview := Preview{
		URL:         pageURL,
		Title:       metaProperty(doc, "og:title"),
		Description: metaProperty(doc, "og:description"),
		ImageURL:    metaProperty(doc, "og:image"),
		SiteName:    metaProperty(doc, "og:site_name"),
	}
	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if preview.Description == "" {
		preview.Description = metaName(doc, "description")
	}
	return preview, nil
}

func metaProperty(doc *goquery.Document, property string) string {
	value, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content")
	return strings.TrimSpace(value)
}

func metaName(doc *goquery.Document, name string) string {
	value, _ := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).First().Attr("content")
	return strings.TrimSpace(value)
}
