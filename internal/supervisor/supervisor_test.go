package supervisor

import (
	"errors"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestFreePortReturnsFirstFree(t *testing.T) {
	// Find a base port we can reason about by grabbing an ephemeral one.
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probe listen: %v", err)
	}
	base := probe.Addr().(*net.TCPAddr).Port
	// Keep base occupied so the scan must skip it.
	defer probe.Close()

	port, err := FreePort("127.0.0.1", base, 20)
	if err != nil {
		t.Fatalf("FreePort: %v", err)
	}
	if port == base {
		t.Fatalf("returned occupied base port %d", base)
	}
	if port < base || port >= base+20 {
		t.Fatalf("port %d outside scan range %d-%d", port, base, base+19)
	}

	// The scan returns the first free port, so everything below it in the
	// range must be occupied.
	for p := base; p < port; p++ {
		listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(p)))
		if err == nil {
			listener.Close()
			t.Fatalf("port %d below result %d was free", p, port)
		}
	}
}

func TestFreePortExhaustedRange(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probe listen: %v", err)
	}
	defer probe.Close()
	base := probe.Addr().(*net.TCPAddr).Port

	if _, err := FreePort("127.0.0.1", base, 1); err == nil {
		t.Fatal("expected error when the only port in range is occupied")
	}
}

func TestFreePortRejectsInvalidBase(t *testing.T) {
	if _, err := FreePort("127.0.0.1", 0, 10); err == nil {
		t.Fatal("expected error for base 0")
	}
	if _, err := FreePort("127.0.0.1", 70000, 10); err == nil {
		t.Fatal("expected error for base above 65535")
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipchimpd.json")
	state := State{PID: 1234, Port: 4600, Host: "127.0.0.1", StartedAt: time.Now().UTC().Truncate(time.Second)}

	if err := WriteState(path, state); err != nil {
		t.Fatalf("WriteState: %v", err)
	}
	got, err := ReadState(path)
	if err != nil {
		t.Fatalf("ReadState: %v", err)
	}
	if got.PID != state.PID || got.Port != state.Port || got.Host != state.Host {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.StartedAt.Equal(state.StartedAt) {
		t.Fatalf("started_at mismatch: %v vs %v", got.StartedAt, state.StartedAt)
	}
}

func TestReadStateMissingFile(t *testing.T) {
	_, err := ReadState(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want fs not-exist", err)
	}
}

func TestStateAliveDetectsDeadProcess(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	state := State{PID: pid}
	if state.Alive() {
		t.Fatalf("pid %d reported alive after exit", pid)
	}

	self := State{PID: os.Getpid()}
	if !self.Alive() {
		t.Fatal("own pid reported dead")
	}
}

func TestStateFreshWindow(t *testing.T) {
	now := time.Now()
	fresh := State{StartedAt: now.Add(-10 * time.Second)}
	if !fresh.Fresh(now, 30*time.Second) {
		t.Fatal("recent state reported not fresh")
	}
	old := State{StartedAt: now.Add(-5 * time.Minute)}
	if old.Fresh(now, 30*time.Second) {
		t.Fatal("old state reported fresh")
	}
	if (State{}).Fresh(now, 30*time.Second) {
		t.Fatal("zero state reported fresh")
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	base := 250 * time.Millisecond
	maxDelay := 2 * time.Second

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 250 * time.Millisecond},
		{2, 500 * time.Millisecond},
		{3, time.Second},
		{4, 2 * time.Second},
		{10, 2 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(base, maxDelay, tc.attempt); got != tc.want {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
