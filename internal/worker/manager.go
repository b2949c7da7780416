package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clipchimp/internal/events"
	"clipchimp/internal/library"
	"clipchimp/internal/logging"
)

// Stage moves a video from one stable status to the next. Run receives the
// video already marked with the working status.
type Stage struct {
	Name    string
	From    library.Status
	Working library.Status
	Done    library.Status
	Run     func(ctx context.Context, video *library.Video) error
}

// Options configure the manager's timing.
type Options struct {
	PollInterval       time.Duration
	ErrorRetryInterval time.Duration
}

// Manager polls the library for work and drives videos through the stage
// pipeline one at a time.
type Manager struct {
	store  *library.Store
	hub    *events.Hub
	logger *slog.Logger
	opts   Options

	stages      []Stage
	stageByFrom map[library.Status]Stage
	statusOrder []library.Status

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastError error
}

// StatusSummary describes the manager for the status API.
type StatusSummary struct {
	Running   bool   `json:"running"`
	Stages    int    `json:"stages"`
	LastError string `json:"last_error,omitempty"`
}

// NewManager constructs a manager over the given stages.
func NewManager(store *library.Store, hub *events.Hub, logger *slog.Logger, opts Options, stages []Stage) (*Manager, error) {
	if store == nil {
		return nil, errors.New("worker requires a store")
	}
	if len(stages) == 0 {
		return nil, errors.New("worker requires at least one stage")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.ErrorRetryInterval <= 0 {
		opts.ErrorRetryInterval = 10 * time.Second
	}

	stageByFrom := make(map[library.Status]Stage, len(stages))
	statusOrder := make([]library.Status, 0, len(stages))
	for _, stage := range stages {
		if _, dup := stageByFrom[stage.From]; dup {
			return nil, fmt.Errorf("duplicate stage for status %q", stage.From)
		}
		stageByFrom[stage.From] = stage
		statusOrder = append(statusOrder, stage.From)
	}

	return &Manager{
		store:       store,
		hub:         hub,
		logger:      logging.WithComponent(logger, "worker"),
		opts:        opts,
		stages:      stages,
		stageByFrom: stageByFrom,
		statusOrder: statusOrder,
	}, nil
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("worker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Status reports the manager's current state.
func (m *Manager) Status() StatusSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := StatusSummary{Running: m.running, Stages: len(m.stages)}
	if m.lastError != nil {
		summary.LastError = m.lastError.Error()
	}
	return summary
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		video, err := m.store.NextForStatuses(ctx, m.statusOrder...)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next video",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check library database access"),
			)
			if !m.sleep(ctx, m.opts.ErrorRetryInterval) {
				return
			}
			continue
		}
		if video == nil {
			if !m.sleep(ctx, m.opts.PollInterval) {
				return
			}
			continue
		}

		if err := m.processVideo(ctx, video); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) processVideo(ctx context.Context, video *library.Video) error {
	stage, ok := m.stageByFrom[video.Status]
	if !ok {
		return fmt.Errorf("no stage for status %q", video.Status)
	}
	logger := m.logger.With(
		logging.Int64(logging.FieldVideoID, video.ID),
		logging.String(logging.FieldPhase, stage.Name),
	)

	video.Status = stage.Working
	video.SetProgress(stage.Name, 0)
	video.ErrorMessage = ""
	if err := m.store.Update(ctx, video); err != nil {
		return fmt.Errorf("mark working: %w", err)
	}
	m.publishStatus(video, stage.Name)
	logger.Info("stage started")

	err := stage.Run(ctx, video)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// Leave the video in the working status; restart recovery
			// rolls it back.
			return context.Canceled
		}
		m.setLastError(err)
		video.SetFailed(err.Error())
		if updateErr := m.store.Update(context.WithoutCancel(ctx), video); updateErr != nil {
			logger.Error("failed to persist failure", logging.Error(updateErr))
		}
		if m.hub != nil {
			m.hub.Error(video.ID, stage.Name, err.Error())
		}
		logger.Error("stage failed", logging.Error(err))
		return err
	}

	video.Status = stage.Done
	video.SetProgress(stage.Name, 100)
	if err := m.store.Update(ctx, video); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	m.publishStatus(video, stage.Name)
	logger.Info("stage completed")
	return nil
}

func (m *Manager) publishStatus(video *library.Video, phase string) {
	if m.hub == nil {
		return
	}
	m.hub.Status(video.ID, phase, string(video.Status))
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastError = err
	m.mu.Unlock()
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
