package proxy

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clipchimp/internal/logging"
)

// Options configure the loopback proxy.
type Options struct {
	CompanionHost string
	CompanionPort int
	StaticDir     string
}

// Proxy serves the UI's static assets and forwards /api/* (including
// websocket upgrades) to the companion server.
type Proxy struct {
	opts    Options
	logger  *slog.Logger
	reverse *httputil.ReverseProxy
}

// New builds a Proxy targeting the given companion.
func New(opts Options, logger *slog.Logger) (*Proxy, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "proxy")

	target, err := url.Parse("http://" + net.JoinHostPort(opts.CompanionHost, strconv.Itoa(opts.CompanionPort)))
	if err != nil {
		return nil, fmt.Errorf("proxy target: %w", err)
	}

	reverse := httputil.NewSingleHostReverseProxy(target)
	reverse.FlushInterval = 100 * time.Millisecond
	reverse.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("companion unreachable",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
		writeCompanionDown(w)
	}

	return &Proxy{opts: opts, logger: logger, reverse: reverse}, nil
}

// Handler returns the proxy's HTTP handler.
func (p *Proxy) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", p.reverse)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/", p.serveStatic)
	return mux
}

// Serve runs the proxy on bind until the listener is closed.
func (p *Proxy) Serve(bind string) error {
	server := &http.Server{
		Addr:              bind,
		Handler:           p.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	p.logger.Info("proxy listening", logging.String("bind", bind))
	return server.ListenAndServe()
}

// serveStatic serves files from the static directory with an index.html
// fallback for client-side routes.
func (p *Proxy) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if p.opts.StaticDir == "" {
		http.NotFound(w, r)
		return
	}

	cleaned := filepath.Clean("/" + r.URL.Path)
	candidate := filepath.Join(p.opts.StaticDir, cleaned)
	if !strings.HasPrefix(candidate, filepath.Clean(p.opts.StaticDir)+string(os.PathSeparator)) && candidate != filepath.Clean(p.opts.StaticDir) {
		http.NotFound(w, r)
		return
	}

	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		http.ServeFile(w, r, candidate)
		return
	}

	index := filepath.Join(p.opts.StaticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

func writeCompanionDown(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_, _ = w.Write([]byte(`{"error":"companion server unavailable"}`))
}
