package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/common/telemetry"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

func (m *Manager) runIndex(ctx context.Context, runID string, project *store.Project) {
	const (
		stepInventory = iota
		stepSymbols
		stepHistory
		stepPrompt
		stepTransform
		stepPersist
	)
	name := project.Name
	if m.runCanceled(ctx, name) {
		return
	}
	m.setStep(name, stepInventory, StepRunning, "Enumerating project files")
	inv, err := m.collectInventory(ctx, project.Path)
	if err != nil {
		if isCanceledErr(err) {
			m.markRunCanceled(name, err)
		} else {
			m.failRun(name, stepInventory, err)
		}
		return
	}
	if m.runCanceled(ctx, name) {
		return
	}
	m.setStep(name, stepInventory, StepCompleted, fmt.Sprintf("%d files, %d lines", len(inv.Files), inv.TotalLines))

	m.setStep(name, stepSymbols, StepRunning, "Extracting symbols")
	scan, err := m.indexer.Scan(ctx, project.Path)
	if err != nil {
		if isCanceledErr(err) {
			m.markRunCanceled(name, err)
		} else {
			m.failRun(name, stepSymbols, err)
		}
		return
	}
	if m.runCanceled(ctx, name) {
		return
	}
	for _, failure := range scan.Failures {
		m.AppendLog("warn", "Symbol extraction failed for %s: %s", failure.Path, failure.Error)
	}
	symbolMsg := fmt.Sprintf("%d symbols from %d files", len(scan.Symbols), scan.Parsed)
	if scan.Truncated {
		symbolMsg += " (capped)"
	}
	m.setStep(name, stepSymbols, StepCompleted, symbolMsg)

	m.setStep(name, stepHistory, StepRunning, "Collecting version-control history")
	hist := collectHistory(ctx, project.Path)
	if m.runCanceled(ctx, name) {
		return
	}
	historyMsg := "no version-control history"
	if len(hist.Commits) > 0 {
		historyMsg = fmt.Sprintf("%d commits, %d recently changed files", len(hist.Commits), len(hist.Changed))
	}
	m.setStep(name, stepHistory, StepCompleted, historyMsg)

	m.setStep(name, stepPrompt, StepRunning, "Selecting custodian prompt")
	prompt, err := m.store.EffectivePrompt(ctx, project.ID)
	if err != nil {
		if isCanceledErr(err) {
			m.markRunCanceled(name, err)
		} else {
			m.failRun(name, stepPrompt, err)
		}
		return
	}
	if m.runCanceled(ctx, name) {
		return
	}
	m.setStep(name, stepPrompt, StepCompleted, fmt.Sprintf("prompt selected (%d bytes)", len(prompt)))

	m.setStep(name, stepTransform, StepRunning, fmt.Sprintf("Transforming digest via %s", m.provider.Name()))
	digest := truncateInput(buildDigest(project, inv, scan, hist))
	scratch := m.writeScratch(runID, digest)
	spanCtx, finishTransform := telemetry.StartSpan(ctx, "pipeline.transform")
	raw, err := m.provider.Transform(spanCtx, prompt, digest)
	transformDur := telemetry.SpanDuration(spanCtx)
	finishTransform("bytes", len(raw))
	if err != nil {
		if isCanceledErr(err) {
			m.markRunCanceled(name, err)
		} else {
			m.failRun(name, stepTransform, err)
		}
		return
	}
	doc, err := parseSnapshotDocument(raw)
	if err != nil {
		m.failRun(name, stepTransform, err)
		return
	}
	if m.runCanceled(ctx, name) {
		return
	}
	m.setStep(name, stepTransform, StepCompleted, fmt.Sprintf("snapshot document received (%d bytes)", len(raw)))

	m.setStep(name, stepPersist, StepRunning, "Persisting snapshot")
	if len(doc.Symbols) == 0 {
		doc.Symbols = scan.Symbols
	}
	fossil, err := m.store.CreateFossil(ctx, project.ID, doc, prompt)
	if err != nil {
		if isCanceledErr(err) {
			m.markRunCanceled(name, err)
		} else {
			m.failRun(name, stepPersist, err)
		}
		return
	}
	if scratch != "" {
		if err := os.Remove(scratch); err != nil && !errors.Is(err, os.ErrNotExist) {
			common.Logger().Debug("pipeline: remove scratch digest failed", "error", err, "path", scratch)
		}
	}
	m.setStep(name, stepPersist, StepCompleted, fmt.Sprintf("fossil v%d persisted (%d symbols)", fossil.Version, len(doc.Symbols)))
	telemetry.RecordPipelineRun(false, transformDur)
	m.completeRun(name, fossil.Version, len(doc.Symbols))
}

// writeScratch stores the digest beside the data dir so failed runs can be
// inspected. Successful runs remove it.
func (m *Manager) writeScratch(runID, digest string) string {
	if m.scratchRoot == "" {
		return ""
	}
	path := filepath.Join(m.scratchRoot, runID+".txt")
	if err := os.WriteFile(path, []byte(digest), 0o644); err != nil {
		common.Logger().Warn("pipeline: write scratch digest failed", "error", err, "path", path)
		return ""
	}
	return path
}

func (m *Manager) setStep(project string, index int, status StepStatus, message string) {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	run, ok := m.runs[project]
	if !ok {
		return
	}
	if run.state.Status == "canceled" {
		return
	}
	if index < 0 || index >= len(run.state.Steps) {
		return
	}
	now := time.Now().UTC()
	step := &run.state.Steps[index]
	switch status {
	case StepRunning:
		step.StartedAt = &now
	case StepCompleted, StepError:
		if step.StartedAt == nil {
			step.StartedAt = &now
		}
		step.CompletedAt = &now
	}
	step.Status = status
	if message != "" {
		step.Message = message
	}
}

func (m *Manager) failRun(project string, index int, err error) {
	m.AppendLog("error", "Indexing failed for project %s: %v", project, err)
	telemetry.RecordPipelineRun(true, 0)
	m.setStep(project, index, StepError, err.Error())
	m.runMu.Lock()
	run, ok := m.runs[project]
	if !ok {
		m.runMu.Unlock()
		return
	}
	if run.state.Status == "canceled" {
		m.runMu.Unlock()
		return
	}
	now := time.Now().UTC()
	run.state.Status = "failed"
	run.state.Running = false
	run.state.CompletedAt = &now
	if err != nil {
		run.state.Error = err.Error()
	} else {
		run.state.Error = ""
	}
	run.cancel = nil
	snapshot := cloneState(run.state)
	m.runMu.Unlock()
	m.persistState(project, snapshot)
}

func (m *Manager) completeRun(project string, version, symbolCount int) {
	m.AppendLog("info", "Indexing completed for project %s (fossil v%d)", project, version)
	m.runMu.Lock()
	run, ok := m.runs[project]
	if !ok {
		m.runMu.Unlock()
		return
	}
	if run.state.Status == "canceled" {
		m.runMu.Unlock()
		return
	}
	now := time.Now().UTC()
	run.state.Status = "done"
	run.state.Running = false
	run.state.CompletedAt = &now
	run.state.Error = ""
	run.state.Version = version
	run.state.Symbols = symbolCount
	run.cancel = nil
	snapshot := cloneState(run.state)
	m.runMu.Unlock()
	m.persistState(project, snapshot)
	m.hookMu.Lock()
	hooks := append([]func(string, int)(nil), m.onComplete...)
	m.hookMu.Unlock()
	for _, hook := range hooks {
		hook(project, version)
	}
}

func (m *Manager) runCanceled(ctx context.Context, project string) bool {
	select {
	case <-ctx.Done():
		m.markRunCanceled(project, ctx.Err())
		return true
	default:
		return false
	}
}

func (m *Manager) markRunCanceled(project string, cause error) {
	m.runMu.Lock()
	run, ok := m.runs[project]
	if !ok {
		m.runMu.Unlock()
		return
	}
	if run.state.Status == "canceled" {
		m.runMu.Unlock()
		return
	}
	now := time.Now().UTC()
	run.state.Status = "canceled"
	run.state.Running = false
	run.state.CompletedAt = &now
	if cause != nil && !isCanceledErr(cause) {
		run.state.Error = cause.Error()
	} else {
		run.state.Error = ""
	}
	for i := range run.state.Steps {
		step := &run.state.Steps[i]
		if step.Status == StepRunning {
			if step.StartedAt == nil {
				step.StartedAt = &now
			}
			step.CompletedAt = &now
			step.Status = StepError
			if step.Message == "" {
				step.Message = "Canceled"
			}
			break
		}
	}
	cancel := run.cancel
	run.cancel = nil
	snapshot := cloneState(run.state)
	m.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
	if cause != nil && !isCanceledErr(cause) {
		m.AppendLog("error", "Indexing canceled for project %s: %v", project, cause)
	} else {
		m.AppendLog("info", "Indexing canceled for project %s", project)
	}
	m.persistState(project, snapshot)
}

func isCanceledErr(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
