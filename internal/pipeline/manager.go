package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/llm"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/symbols"
)

const maxLogEntries = 500

var (
	ErrRunInProgress = errors.New("indexing already running")
	ErrRunNotFound   = errors.New("indexing run not found")
	ErrRunNotRunning = errors.New("indexing run not running")
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type Step struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// State is the status of one indexing run. Terminal statuses are done,
// failed and canceled.
type State struct {
	RunID       string     `json:"run_id,omitempty"`
	Project     string     `json:"project"`
	Status      string     `json:"status"`
	Running     bool       `json:"running"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Steps       []Step     `json:"steps"`
	Error       string     `json:"error,omitempty"`
	Version     int        `json:"version,omitempty"`
	Symbols     int        `json:"symbols,omitempty"`
}

var stepNames = [...]string{"inventory", "extract-symbols", "collect-history", "select-prompt", "transform", "persist"}

func newSteps() []Step {
	steps := make([]Step, len(stepNames))
	for i, name := range stepNames {
		steps[i] = Step{Name: name, Status: StepPending}
	}
	return steps
}

type session struct {
	state  State
	cancel context.CancelFunc
}

// Manager owns indexing runs, at most one per project at a time.
type Manager struct {
	store    *store.Store
	provider llm.Provider
	indexer  *symbols.Indexer

	historyPath string
	scratchRoot string

	historyMu sync.Mutex
	history   map[string]State

	logMu sync.Mutex
	logs  []LogEntry

	runMu sync.Mutex
	runs  map[string]*session

	hookMu     sync.Mutex
	onComplete []func(project string, version int)
}

func NewManager(st *store.Store, provider llm.Provider, indexer *symbols.Indexer, dataDir string) *Manager {
	mgr := &Manager{
		store:    st,
		provider: provider,
		indexer:  indexer,
		logs:     make([]LogEntry, 0, 32),
		runs:     make(map[string]*session),
		history:  make(map[string]State),
	}
	if dataDir = strings.TrimSpace(dataDir); dataDir != "" {
		mgr.historyPath = filepath.Join(dataDir, "pipeline_history.json")
		mgr.scratchRoot = filepath.Join(dataDir, "scratch")
	}
	if mgr.scratchRoot != "" {
		if err := os.MkdirAll(mgr.scratchRoot, 0o755); err != nil {
			common.Logger().Warn("pipeline: create scratch root failed", "error", err, "path", mgr.scratchRoot)
			mgr.scratchRoot = ""
		}
	}
	if err := mgr.loadHistory(); err != nil {
		common.Logger().Warn("pipeline: load history failed", "error", err)
	}
	return mgr
}

// OnComplete registers fn to run after every successful indexing run.
func (m *Manager) OnComplete(fn func(project string, version int)) {
	if fn == nil {
		return
	}
	m.hookMu.Lock()
	m.onComplete = append(m.onComplete, fn)
	m.hookMu.Unlock()
}

func (m *Manager) AppendLog(level, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	entry := LogEntry{Time: time.Now().UTC(), Level: level, Message: text}
	m.logMu.Lock()
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogEntries {
		m.logs = m.logs[len(m.logs)-maxLogEntries:]
	}
	m.logMu.Unlock()
	logger := common.Logger()
	switch level {
	case "error":
		logger.Error(text)
	case "warn":
		logger.Warn(text)
	case "debug":
		logger.Debug(text)
	default:
		logger.Info(text)
	}
}

func (m *Manager) Logs() []LogEntry {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	entries := make([]LogEntry, len(m.logs))
	copy(entries, m.logs)
	return entries
}

// Start launches an indexing run for the project. A project with a live run
// is rejected with ErrRunInProgress, never queued: the store's version
// increment is only safe with one writer per project.
func (m *Manager) Start(project *store.Project) (string, error) {
	if project == nil {
		return "", fmt.Errorf("project required")
	}
	if strings.TrimSpace(project.Path) == "" {
		return "", fmt.Errorf("project %s has no path on disk", project.Name)
	}
	runID := uuid.NewString()
	now := time.Now().UTC()
	state := State{
		RunID:     runID,
		Project:   project.Name,
		Status:    "running",
		Running:   true,
		StartedAt: &now,
		Steps:     newSteps(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.runMu.Lock()
	if existing, ok := m.runs[project.Name]; ok && existing.state.Running {
		m.runMu.Unlock()
		cancel()
		return "", ErrRunInProgress
	}
	m.runs[project.Name] = &session{state: state, cancel: cancel}
	m.runMu.Unlock()
	snapshot := *project
	go m.runIndex(ctx, runID, &snapshot)
	m.AppendLog("info", "Indexing started for project %s (run %s)", project.Name, runID)
	return runID, nil
}

func (m *Manager) Stop(project string) error {
	project = strings.TrimSpace(project)
	if project == "" {
		return fmt.Errorf("project name required")
	}
	m.runMu.Lock()
	run, ok := m.runs[project]
	if !ok {
		m.runMu.Unlock()
		return ErrRunNotFound
	}
	if !run.state.Running || run.cancel == nil {
		m.runMu.Unlock()
		return ErrRunNotRunning
	}
	if run.state.Status != "canceling" {
		run.state.Status = "canceling"
	}
	cancel := run.cancel
	m.runMu.Unlock()
	cancel()
	m.AppendLog("info", "Cancellation requested for project %s", project)
	return nil
}

func (m *Manager) Status(project string) State {
	project = strings.TrimSpace(project)
	if project == "" {
		return newState()
	}

	m.runMu.Lock()
	run, ok := m.runs[project]
	if ok {
		snapshot := cloneState(run.state)
		m.runMu.Unlock()
		return snapshot
	}
	m.runMu.Unlock()

	m.historyMu.Lock()
	stored, ok := m.history[project]
	if ok {
		snapshot := cloneState(stored)
		m.historyMu.Unlock()
		return snapshot
	}
	m.historyMu.Unlock()

	state := newState()
	state.Project = project
	return state
}

// States merges persisted history with live runs, live winning.
func (m *Manager) States() map[string]State {
	result := make(map[string]State)
	m.historyMu.Lock()
	for name, state := range m.history {
		result[name] = cloneState(state)
	}
	m.historyMu.Unlock()
	m.runMu.Lock()
	for name, run := range m.runs {
		result[name] = cloneState(run.state)
	}
	m.runMu.Unlock()
	return result
}

func newState() State {
	return State{Status: "idle", Steps: []Step{}}
}

func cloneState(src State) State {
	clone := src
	if len(src.Steps) > 0 {
		clone.Steps = append([]Step(nil), src.Steps...)
	}
	return clone
}

func (m *Manager) loadHistory() error {
	if m.historyPath == "" {
		return nil
	}
	data, err := os.ReadFile(m.historyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	var stored map[string]State
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	for name, state := range stored {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		snapshot := cloneState(state)
		if snapshot.Project == "" {
			snapshot.Project = trimmed
		}
		m.history[trimmed] = snapshot
	}
	return nil
}

func (m *Manager) saveHistoryLocked() error {
	if m.historyPath == "" {
		return nil
	}
	tmpPath := m.historyPath + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(file)
	if err := enc.Encode(m.history); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, m.historyPath)
}

func (m *Manager) persistState(project string, state State) {
	project = strings.TrimSpace(project)
	if project == "" {
		return
	}
	snapshot := cloneState(state)
	if snapshot.Project == "" {
		snapshot.Project = project
	}
	m.historyMu.Lock()
	if m.history == nil {
		m.history = make(map[string]State)
	}
	m.history[project] = snapshot
	if err := m.saveHistoryLocked(); err != nil {
		common.Logger().Warn("pipeline: save history failed", "error", err)
	}
	m.historyMu.Unlock()
}
