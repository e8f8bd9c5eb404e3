package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStartCapturesOutputAndStops(t *testing.T) {
	mgr := NewManager()
	dir := t.TempDir()
	t.Cleanup(func() { _ = mgr.Stop("web") })

	status, err := mgr.Start("web", dir, `sh -c 'echo hello; echo "error: kaboom" 1>&2; sleep 30'`)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if status.State != StateRunning || status.PID == 0 {
		t.Fatalf("unexpected start status %+v", status)
	}

	waitFor(t, 5*time.Second, func() bool {
		return mgr.Status("web").LogLines >= 2
	}, "process output never reached the log buffer")

	if _, err := mgr.Start("web", dir, "sleep 30"); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	status = mgr.Status("web")
	if status.Errors != 1 {
		t.Fatalf("expected 1 error line, got %d", status.Errors)
	}

	lines, err := mgr.Logs("web", 10, "error")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "kaboom") {
		t.Fatalf("unexpected filtered logs %v", lines)
	}

	if err := mgr.Stop("web"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if state := mgr.Status("web").State; state != StateStopped {
		t.Fatalf("expected stopped, got %s", state)
	}

	lines, err = mgr.Logs("web", 10, "")
	if err != nil {
		t.Fatalf("logs after stop failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected buffered logs to survive stop, got %v", lines)
	}
}

func TestCrashedProcessIsMarked(t *testing.T) {
	mgr := NewManager()
	if _, err := mgr.Start("web", t.TempDir(), `sh -c 'echo boom; exit 3'`); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		return mgr.Status("web").State == StateCrashed
	}, "crash never observed")
	lines, err := mgr.Logs("web", 10, "")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if len(lines) != 1 || lines[0] != "boom" {
		t.Fatalf("unexpected logs %v", lines)
	}
}

func TestStopWithoutSession(t *testing.T) {
	mgr := NewManager()
	if err := mgr.Stop("ghost"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if _, err := mgr.Logs("ghost", 10, ""); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if status := mgr.Status("ghost"); status.State != StateStopped {
		t.Fatalf("expected stopped placeholder, got %+v", status)
	}
}

func TestRestartReusesCommand(t *testing.T) {
	mgr := NewManager()
	dir := t.TempDir()
	t.Cleanup(func() { _ = mgr.Stop("web") })

	first, err := mgr.Start("web", dir, "sleep 30")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	status, err := mgr.Restart("web")
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if status.State != StateRunning || status.Command != "sleep 30" {
		t.Fatalf("unexpected restart status %+v", status)
	}
	if status.PID == first.PID {
		t.Fatalf("expected a new process, pid %d reused", status.PID)
	}
	if err := mgr.Stop("web"); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if _, err := mgr.Restart("ghost"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning for unknown project, got %v", err)
	}
}

func TestStartAutodetectFailure(t *testing.T) {
	mgr := NewManager()
	if _, err := mgr.Start("web", t.TempDir(), ""); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
	if state := mgr.Status("web").State; state != StateStopped {
		t.Fatalf("expected stopped after failed autodetect, got %s", state)
	}
}

func TestRunTests(t *testing.T) {
	mgr := NewManager()
	dir := t.TempDir()

	result, err := mgr.RunTests(context.Background(), "web", dir, `sh -c 'echo 12 passed'`)
	if err != nil {
		t.Fatalf("run tests failed: %v", err)
	}
	if !result.Passed || result.ExitCode != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Stdout, "12 passed") {
		t.Fatalf("stdout not captured: %q", result.Stdout)
	}

	result, err = mgr.RunTests(context.Background(), "web", dir, `sh -c 'echo "assertion failed" 1>&2; exit 2'`)
	if err != nil {
		t.Fatalf("run tests failed: %v", err)
	}
	if result.Passed || result.ExitCode != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(result.Stderr, "assertion failed") {
		t.Fatalf("stderr not captured: %q", result.Stderr)
	}

	if _, err := mgr.RunTests(context.Background(), "web", dir, ""); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}
