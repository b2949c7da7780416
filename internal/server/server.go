package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"clipchimp/internal/events"
	"clipchimp/internal/library"
	"clipchimp/internal/linkpreview"
	"clipchimp/internal/logging"
	"clipchimp/internal/worker"
)

// WorkerReporter exposes the worker manager's state to the status endpoint.
type WorkerReporter interface {
	Status() worker.StatusSummary
}

// Options configure the companion API server.
type Options struct {
	Host    string
	Port    int
	Version string
}

// Server is the companion HTTP API consumed by the proxy, the CLI client,
// and the UI.
type Server struct {
	opts    Options
	store   *library.Store
	hub     *events.Hub
	worker  WorkerReporter
	preview *linkpreview.Fetcher
	logger  *slog.Logger

	startedAt  time.Time
	listener   net.Listener
	httpServer *http.Server
}

// New constructs a Server over the given store and event hub.
func New(opts Options, store *library.Store, hub *events.Hub, workerReporter WorkerReporter, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("server requires a store")
	}
	return &Server{
		opts:      opts,
		store:     store,
		hub:       hub,
		worker:    workerReporter,
		preview:   linkpreview.NewFetcher(nil),
		logger:    logging.WithComponent(logger, "api-server"),
		startedAt: time.Now().UTC(),
	}, nil
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/library", s.handleLibrary)
	mux.HandleFunc("/api/library/", s.handleLibraryItem)
	mux.HandleFunc("/api/downloads", s.handleDownloads)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/settings/", s.handleSettingItem)
	mux.HandleFunc("/api/linkpreview", s.handleLinkPreview)
	mux.Handle("/api/events", s.eventsHandler())
	return mux
}

// Start binds the listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	bind := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Port returns the bound port, useful when Options.Port was zero.
func (s *Server) Port() int {
	if s.listener == nil {
		return s.opts.Port
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return s.opts.Port
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
