package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/websocket"

	"clipchimp/internal/config"
	"clipchimp/internal/events"
	"clipchimp/internal/library"
	"clipchimp/internal/linkpreview"
	"clipchimp/internal/server"
	"clipchimp/internal/supervisor"
)

// ErrCompanionUnavailable marks failures to reach the companion server.
var ErrCompanionUnavailable = errors.New("companion server unavailable")

// Client is a typed HTTP client for the companion API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for the given companion address ("host:port" or a full
// URL).
func New(address string) (*Client, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.New("companion address is empty")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	base, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse companion address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		http: &http.Client{},
	}, nil
}

// Discover locates a running companion through its state file and returns a
// client pointed at it. It fails when no live companion is recorded.
func Discover(cfg *config.Config) (*Client, error) {
	statePath := supervisor.StatePathFor(cfg)
	state, err := supervisor.ReadState(statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: not running", ErrCompanionUnavailable)
		}
		return nil, fmt.Errorf("read companion state: %w", err)
	}
	if !state.Alive() {
		return nil, fmt.Errorf("%w: recorded process %d is gone", ErrCompanionUnavailable, state.PID)
	}
	return New(net.JoinHostPort(state.Host, strconv.Itoa(state.Port)))
}

// IsUnavailable reports whether err means the companion cannot be reached.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrCompanionUnavailable) || errors.As(err, &opErr)
}

// Status fetches the companion's status summary.
func (c *Client) Status(ctx context.Context) (server.StatusResponse, error) {
	var out server.StatusResponse
	err := c.getJSON(ctx, "/api/status", nil, &out)
	return out, err
}

// Library lists videos, optionally filtered by status.
func (c *Client) Library(ctx context.Context, statuses ...library.Status) ([]server.VideoView, error) {
	values := url.Values{}
	for _, status := range statuses {
		values.Add("status", string(status))
	}
	var out server.LibraryResponse
	if err := c.getJSON(ctx, "/api/library", values, &out); err != nil {
		return nil, err
	}
	return out.Videos, nil
}

// Video fetches a single library entry.
func (c *Client) Video(ctx context.Context, id int64) (server.VideoView, error) {
	var out server.VideoResponse
	err := c.getJSON(ctx, "/api/library/"+strconv.FormatInt(id, 10), nil, &out)
	return out.Video, err
}

// SubmitDownload queues a new download.
func (c *Client) SubmitDownload(ctx context.Context, pageURL, title string) (server.VideoView, error) {
	var out server.VideoResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/downloads", server.DownloadRequest{URL: pageURL, Title: title}, &out)
	return out.Video, err
}

// Remove deletes a video and its artifacts.
func (c *Client) Remove(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/library/"+strconv.FormatInt(id, 10), nil, nil)
}

// Transcribe requeues a video for transcription.
func (c *Client) Transcribe(ctx context.Context, id int64) (server.VideoView, error) {
	var out server.VideoResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/library/"+strconv.FormatInt(id, 10)+"/transcribe", nil, &out)
	return out.Video, err
}

// Analyze requeues a video for analysis.
func (c *Client) Analyze(ctx context.Context, id int64) (server.VideoView, error) {
	var out server.VideoResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/library/"+strconv.FormatInt(id, 10)+"/analyze", nil, &out)
	return out.Video, err
}

// Retry resets a failed video so the pipeline reruns it.
func (c *Client) Retry(ctx context.Context, id int64) (server.VideoView, error) {
	var out server.VideoResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/library/"+strconv.FormatInt(id, 10)+"/retry", nil, &out)
	return out.Video, err
}

// Settings fetches all settings.
func (c *Client) Settings(ctx context.Context) (map[string]string, error) {
	var out map[string]map[string]string
	if err := c.getJSON(ctx, "/api/settings", nil, &out); err != nil {
		return nil, err
	}
	return out["settings"], nil
}

// SettingSet stores one setting.
func (c *Client) SettingSet(ctx context.Context, key, value string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/settings/"+url.PathEscape(key), server.SettingRequest{Value: value}, nil)
}

// SettingDelete removes one setting.
func (c *Client) SettingDelete(ctx context.Context, key string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/settings/"+url.PathEscape(key), nil, nil)
}

// LinkPreview fetches Open Graph metadata for a page.
func (c *Client) LinkPreview(ctx context.Context, pageURL string) (linkpreview.Preview, error) {
	var out linkpreview.Preview
	err := c.getJSON(ctx, "/api/linkpreview", url.Values{"url": []string{pageURL}}, &out)
	return out, err
}

// Events opens the websocket event stream and delivers events on the
// returned channel until ctx is cancelled or the stream closes.
func (c *Client) Events(ctx context.Context, since uint64) (<-chan events.Event, error) {
	wsURL := *c.base
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/api/events"
	if since > 0 {
		wsURL.RawQuery = "since=" + strconv.FormatUint(since, 10)
	}

	conn, err := websocket.Dial(wsURL.String(), "", c.base.String())
	if err != nil {
		return nil, fmt.Errorf("dial event stream: %w", err)
	}

	ch := make(chan events.Event)
	go func() {
		defer close(ch)
		defer conn.Close()
		for {
			var event events.Event
			if err := websocket.JSON.Receive(conn, &event); err != nil {
				return
			}
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return ch, nil
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("companion returned status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("companion returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
