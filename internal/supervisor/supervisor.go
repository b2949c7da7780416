package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"clipchimp/internal/config"
	"clipchimp/internal/logging"
)

// ErrAlreadyRunning is returned when another supervisor holds the lock and
// its companion answers health checks.
var ErrAlreadyRunning = errors.New("companion already running")

// Supervisor owns the companion server process: it picks a port, spawns the
// child, waits for it to become healthy, and tears it down on shutdown.
type Supervisor struct {
	cfg    *config.Config
	logger *slog.Logger

	lock      *flock.Flock
	lockPath  string
	statePath string

	cmd   *exec.Cmd
	state State
	owned bool
}

// New constructs a supervisor rooted in the configured data directory.
func New(cfg *config.Config, logger *slog.Logger) (*Supervisor, error) {
	if cfg == nil {
		return nil, errors.New("supervisor requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "clipchimpd.lock")
	return &Supervisor{
		cfg:       cfg,
		logger:    logging.WithComponent(logger, "supervisor"),
		lock:      flock.New(lockPath),
		lockPath:  lockPath,
		statePath: StatePathFor(cfg),
	}, nil
}

// StatePathFor returns where the companion state file lives for a config.
func StatePathFor(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "clipchimpd.json")
}

// StatePath returns the location of the companion state file.
func (s *Supervisor) StatePath() string {
	return s.statePath
}

// Start acquires the single-instance lock and ensures a healthy companion is
// running, spawning one when needed. The returned state describes the
// companion to talk to, whether adopted or freshly spawned.
func (s *Supervisor) Start(ctx context.Context) (State, error) {
	if err := s.cfg.EnsureDirectories(); err != nil {
		return State{}, fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return State{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		// Another supervisor owns the companion; hand back its state.
		state, err := ReadState(s.statePath)
		if err != nil {
			return State{}, fmt.Errorf("%w: lock held but state unreadable: %v", ErrAlreadyRunning, err)
		}
		return state, ErrAlreadyRunning
	}

	if state, adopted := s.adoptLeftover(ctx); adopted {
		s.state = state
		s.owned = false
		s.logger.Info("adopted running companion",
			logging.Int("pid", state.PID),
			logging.Int("port", state.Port),
		)
		return state, nil
	}

	state, err := s.spawn(ctx)
	if err != nil {
		_ = s.lock.Unlock()
		return State{}, err
	}
	s.state = state
	s.owned = true
	return state, nil
}

// adoptLeftover inspects a leftover state file under our lock. A live,
// responsive companion is reused; anything else is cleaned up.
func (s *Supervisor) adoptLeftover(ctx context.Context) (State, bool) {
	state, err := ReadState(s.statePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("removing unreadable state file", logging.Error(err))
			_ = RemoveState(s.statePath)
		}
		return State{}, false
	}

	if !state.Alive() {
		s.logger.Info("removing stale state file",
			logging.Int("pid", state.PID),
			logging.String("reason", "process gone"),
		)
		_ = RemoveState(s.statePath)
		return State{}, false
	}

	window := time.Duration(s.cfg.Server.LockStaleSeconds) * time.Second
	if state.Fresh(time.Now(), window) {
		return state, true
	}
	if err := probeHealth(ctx, healthURL(state.Host, state.Port)); err == nil {
		return state, true
	}
	s.logger.Info("removing stale state file",
		logging.Int("pid", state.PID),
		logging.String("reason", "health probe failed"),
	)
	_ = RemoveState(s.statePath)
	return State{}, false
}

func (s *Supervisor) spawn(ctx context.Context) (State, error) {
	host := s.cfg.Server.Host
	port, err := FreePort(host, s.cfg.Server.BasePort, s.cfg.Server.PortSpan)
	if err != nil {
		return State{}, err
	}

	binary, err := s.resolveCompanionBinary()
	if err != nil {
		return State{}, err
	}

	cmd := exec.Command(binary)
	cmd.Env = append(os.Environ(),
		"CLIPCHIMP_PORT="+strconv.Itoa(port),
		"CLIPCHIMP_HOST="+host,
		"CLIPCHIMP_CONFIG="+s.cfg.SourcePath(),
	)
	if s.cfg.Server.CompanionLogToFile {
		logPath := filepath.Join(s.cfg.Paths.LogDir, "clipchimpd.log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return State{}, fmt.Errorf("open companion log: %w", err)
		}
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return State{}, fmt.Errorf("spawn companion: %w", err)
	}
	s.cmd = cmd

	state := State{
		PID:       cmd.Process.Pid,
		Port:      port,
		Host:      host,
		StartedAt: time.Now().UTC(),
	}
	if err := WriteState(s.statePath, state); err != nil {
		s.killChild()
		return State{}, err
	}

	s.logger.Info("companion spawned",
		logging.Int("pid", state.PID),
		logging.Int("port", state.Port),
		logging.String("binary", binary),
	)

	if err := s.waitHealthy(ctx, state); err != nil {
		s.killChild()
		_ = RemoveState(s.statePath)
		return State{}, err
	}
	return state, nil
}

// waitHealthy polls the companion health endpoint with capped exponential
// backoff until it answers or the attempts are exhausted.
func (s *Supervisor) waitHealthy(ctx context.Context, state State) error {
	attempts := s.cfg.Server.HealthAttempts
	if attempts <= 0 {
		attempts = 1
	}
	base := time.Duration(s.cfg.Server.HealthBaseDelayMS) * time.Millisecond
	maxDelay := time.Duration(s.cfg.Server.HealthMaxDelayMS) * time.Millisecond
	url := healthURL(state.Host, state.Port)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(base, maxDelay, attempt)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if s.cmd != nil && s.cmd.ProcessState != nil {
			return fmt.Errorf("companion exited before becoming healthy: %s", s.cmd.ProcessState)
		}
		if err := probeHealth(ctx, url); err == nil {
			s.logger.Info("companion healthy",
				logging.Int("port", state.Port),
				logging.Int("attempts", attempt+1),
			)
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("companion not healthy after %d attempts: %w", attempts, lastErr)
}

// Stop terminates an owned companion: SIGTERM, a grace period, then SIGKILL.
// An adopted companion is left running.
func (s *Supervisor) Stop() {
	defer func() {
		_ = s.lock.Unlock()
	}()

	if !s.owned || s.cmd == nil || s.cmd.Process == nil {
		return
	}

	grace := time.Duration(s.cfg.Server.ShutdownGraceSecs) * time.Second
	if grace <= 0 {
		grace = 5 * time.Second
	}

	_ = s.cmd.Process.Signal(syscall.SIGTERM)
	done := make(chan error, 1)
	go func() {
		done <- s.cmd.Wait()
	}()
	select {
	case <-done:
		s.logger.Info("companion stopped", logging.Int("pid", s.state.PID))
	case <-time.After(grace):
		s.logger.Warn("companion did not exit in time, killing", logging.Int("pid", s.state.PID))
		_ = s.cmd.Process.Kill()
		<-done
	}

	_ = RemoveState(s.statePath)
	s.cmd = nil
}

func (s *Supervisor) killChild() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	s.cmd = nil
}

func (s *Supervisor) resolveCompanionBinary() (string, error) {
	if configured := s.cfg.Server.CompanionBinary; configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
		return "", fmt.Errorf("configured companion binary %q not found", configured)
	}
	if executable, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(executable), "clipchimpd")
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	if resolved, err := exec.LookPath("clipchimpd"); err == nil {
		return resolved, nil
	}
	return "", errors.New("clipchimpd binary not found next to executable or on PATH")
}

// backoffDelay computes base*2^(attempt-1) capped at maxDelay.
func backoffDelay(base, maxDelay time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if maxDelay > 0 && delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}

func healthURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/healthz"
}

func probeHealth(ctx context.Context, url string) error {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe: http %d", resp.StatusCode)
	}
	return nil
}
