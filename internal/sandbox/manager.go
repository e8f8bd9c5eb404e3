package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/common/telemetry"
)

const (
	StateStopped  = "stopped"
	StateStarting = "starting"
	StateRunning  = "running"
	StateCrashed  = "crashed"
)

const (
	testTimeout   = 120 * time.Second
	maxTestStdout = 3000
	maxTestStderr = 2000
)

var (
	ErrAlreadyRunning = errors.New("sandbox already running")
	ErrNotRunning     = errors.New("sandbox not running")
)

// Status is a point-in-time view of one project's sandbox.
type Status struct {
	Project   string `json:"project"`
	State     string `json:"state"`
	Command   string `json:"command,omitempty"`
	PID       int    `json:"pid,omitempty"`
	Port      int    `json:"port,omitempty"`
	UptimeSec int    `json:"uptime_seconds,omitempty"`
	LogLines  int    `json:"log_lines"`
	Errors    int    `json:"errors"`
	Warnings  int    `json:"warnings"`
}

// TestResult reports one test command execution.
type TestResult struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Passed   bool   `json:"passed"`
	TimedOut bool   `json:"timed_out,omitempty"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	Duration string `json:"duration"`
}

type session struct {
	project   string
	dir       string
	command   string
	port      int
	state     string
	proc      *process
	ring      *logRing
	startedAt time.Time
	stopping  bool
}

// Manager owns at most one child process per project.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	capacity int
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*session), capacity: DefaultLogCapacity}
}

// Start launches the project's dev process. An empty command triggers
// autodetection; a live session is rejected with ErrAlreadyRunning.
func (m *Manager) Start(project, dir, command string) (Status, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return Status{}, fmt.Errorf("project name required")
	}
	m.mu.Lock()
	if sess, ok := m.sessions[project]; ok && (sess.state == StateRunning || sess.state == StateStarting) {
		m.mu.Unlock()
		return Status{}, ErrAlreadyRunning
	}
	port := 0
	command = strings.TrimSpace(command)
	if command == "" {
		detected, err := DetectCommand(dir)
		if err != nil {
			m.mu.Unlock()
			return Status{}, err
		}
		command = detected.Command
		port = detected.Port
	}
	sess := &session{
		project: project,
		dir:     dir,
		command: command,
		port:    port,
		state:   StateStarting,
		ring:    newLogRing(m.capacity),
	}
	m.sessions[project] = sess
	m.mu.Unlock()

	proc, err := launch(command, dir, sess.ring)
	if err != nil {
		m.mu.Lock()
		sess.state = StateStopped
		m.mu.Unlock()
		return Status{}, err
	}
	m.mu.Lock()
	sess.proc = proc
	sess.state = StateRunning
	sess.startedAt = time.Now()
	snapshot := m.statusLocked(sess)
	m.mu.Unlock()
	go m.watch(project, proc)
	telemetry.RecordSandboxStart()
	common.Logger().Info("sandbox: process started", "project", project, "command", command, "pid", proc.pid())
	return snapshot, nil
}

// watch flips the session state when the child exits on its own.
func (m *Manager) watch(project string, proc *process) {
	<-proc.done
	err := proc.waitError()
	m.mu.Lock()
	sess, ok := m.sessions[project]
	if !ok || sess.proc != proc {
		m.mu.Unlock()
		return
	}
	deliberate := sess.stopping
	sess.stopping = false
	sess.proc = nil
	if deliberate || err == nil {
		sess.state = StateStopped
	} else {
		sess.state = StateCrashed
	}
	m.mu.Unlock()
	if deliberate || err == nil {
		common.Logger().Info("sandbox: process stopped", "project", project)
	} else {
		telemetry.RecordSandboxCrash()
		common.Logger().Warn("sandbox: process crashed", "project", project, "error", err)
	}
}

func (m *Manager) Stop(project string) error {
	project = strings.TrimSpace(project)
	m.mu.Lock()
	sess, ok := m.sessions[project]
	if !ok || sess.proc == nil || (sess.state != StateRunning && sess.state != StateStarting) {
		m.mu.Unlock()
		return ErrNotRunning
	}
	sess.stopping = true
	proc := sess.proc
	m.mu.Unlock()

	stopErr := proc.stop()
	m.mu.Lock()
	if sess.proc == proc {
		sess.proc = nil
		sess.state = StateStopped
		sess.stopping = false
	}
	m.mu.Unlock()
	if stopErr != nil {
		return fmt.Errorf("stop sandbox: %w", stopErr)
	}
	common.Logger().Info("sandbox: process stopped", "project", project)
	return nil
}

// Restart stops a live process if any and relaunches the previous command.
func (m *Manager) Restart(project string) (Status, error) {
	project = strings.TrimSpace(project)
	m.mu.Lock()
	sess, ok := m.sessions[project]
	if !ok {
		m.mu.Unlock()
		return Status{}, ErrNotRunning
	}
	dir, command := sess.dir, sess.command
	running := sess.proc != nil && (sess.state == StateRunning || sess.state == StateStarting)
	m.mu.Unlock()
	if running {
		if err := m.Stop(project); err != nil && !errors.Is(err, ErrNotRunning) {
			return Status{}, err
		}
	}
	return m.Start(project, dir, command)
}

func (m *Manager) Status(project string) Status {
	project = strings.TrimSpace(project)
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[project]
	if !ok {
		return Status{Project: project, State: StateStopped}
	}
	return m.statusLocked(sess)
}

func (m *Manager) statusLocked(sess *session) Status {
	status := Status{
		Project: sess.project,
		State:   sess.state,
		Command: sess.command,
		Port:    sess.port,
	}
	if sess.proc != nil {
		status.PID = sess.proc.pid()
	}
	if sess.state == StateRunning && !sess.startedAt.IsZero() {
		status.UptimeSec = int(time.Since(sess.startedAt).Seconds())
	}
	if sess.ring != nil {
		status.LogLines = sess.ring.Len()
		status.Errors, status.Warnings = sess.ring.Counts()
	}
	return status
}

// Logs returns the last n buffered lines, optionally filtered to lines that
// look like errors or warnings. The buffer survives the process, so crashed
// sessions can still be inspected.
func (m *Manager) Logs(project string, n int, filter string) ([]string, error) {
	project = strings.TrimSpace(project)
	m.mu.Lock()
	sess, ok := m.sessions[project]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotRunning
	}
	if n <= 0 {
		n = 100
	}
	lines := sess.ring.Last(0)
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "":
	case "error":
		lines = filterLines(lines, func(line string) bool {
			return strings.Contains(line, "error") && !strings.Contains(line, "warning")
		})
	case "warning":
		lines = filterLines(lines, func(line string) bool {
			return strings.Contains(line, "warning")
		})
	default:
		return nil, fmt.Errorf("unknown log filter %q", filter)
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func filterLines(lines []string, keep func(string) bool) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if keep(strings.ToLower(line)) {
			out = append(out, line)
		}
	}
	return out
}

// RunTests executes the project's test command once with a hard timeout.
// A failing test run is a result, not an error.
func (m *Manager) RunTests(ctx context.Context, project, dir, command string) (*TestResult, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		detected, err := DetectTestCommand(dir)
		if err != nil {
			return nil, err
		}
		command = detected
	}
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("split command: %w", err)
	}
	if len(words) == 0 {
		return nil, ErrNoCommand
	}
	runCtx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, words[0], words[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	start := time.Now()
	runErr := cmd.Run()
	result := &TestResult{
		Command:  command,
		Duration: time.Since(start).Round(time.Millisecond).String(),
		Stdout:   tailString(stdout.String(), maxTestStdout),
		Stderr:   tailString(stderr.String(), maxTestStderr),
	}
	if runErr == nil {
		result.Passed = true
		common.Logger().Info("sandbox: tests passed", "project", project, "command", command)
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		result.TimedOut = errors.Is(runCtx.Err(), context.DeadlineExceeded)
		common.Logger().Info("sandbox: tests failed", "project", project, "command", command, "exit_code", result.ExitCode)
		return result, nil
	}
	return nil, fmt.Errorf("run tests: %w", runErr)
}

func tailString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
