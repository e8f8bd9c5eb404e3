package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/sandbox"
)

// SandboxStartTool launches a project's dev process.
type SandboxStartTool struct {
	deps *Deps
}

func NewSandboxStartTool(deps *Deps) *SandboxStartTool { return &SandboxStartTool{deps: deps} }

func (t *SandboxStartTool) Definition() mcp.Tool {
	return mcp.NewTool("sandbox_start",
		mcp.WithDescription(
			"Start a dev server or sandbox process for a project. Auto-detects the command "+
				"(npm run dev, python app.py, ...) or accepts an override.",
		),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
		mcp.WithString("command", mcp.Description("Override command, e.g. 'npm run dev'. Auto-detected if omitted.")),
	)
}

func (t *SandboxStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	status, err := t.deps.Sandbox.Start(project.Name, project.Path, req.GetString("command", ""))
	switch {
	case errors.Is(err, sandbox.ErrAlreadyRunning):
		return mcp.NewToolResultError(fmt.Sprintf(
			"already running: '%s' has a live sandbox; use sandbox_restart or sandbox_stop first", project.Name)), nil
	case errors.Is(err, sandbox.ErrNoCommand):
		return mcp.NewToolResultError(fmt.Sprintf(
			"no runnable command detected for '%s': pass a 'command' argument (e.g. 'npm run dev')", project.Name)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("start sandbox: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Started `%s`%s (PID %d) for %s.", status.Command, portNote(status.Port), status.PID, project.Name)), nil
}

// SandboxStopTool terminates a project's running process.
type SandboxStopTool struct {
	deps *Deps
}

func NewSandboxStopTool(deps *Deps) *SandboxStopTool { return &SandboxStopTool{deps: deps} }

func (t *SandboxStopTool) Definition() mcp.Tool {
	return mcp.NewTool("sandbox_stop",
		mcp.WithDescription("Stop the project's running sandbox process."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
	)
}

func (t *SandboxStopTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	err := t.deps.Sandbox.Stop(project.Name)
	if errors.Is(err, sandbox.ErrNotRunning) {
		return mcp.NewToolResultError(fmt.Sprintf("no sandbox is running for '%s'", project.Name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stop sandbox: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Stopped sandbox for %s.", project.Name)), nil
}

// SandboxRestartTool relaunches a project's process with its previous command.
type SandboxRestartTool struct {
	deps *Deps
}

func NewSandboxRestartTool(deps *Deps) *SandboxRestartTool { return &SandboxRestartTool{deps: deps} }

func (t *SandboxRestartTool) Definition() mcp.Tool {
	return mcp.NewTool("sandbox_restart",
		mcp.WithDescription("Restart the project's sandbox process (stop, then start with the same command)."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
	)
}

func (t *SandboxRestartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	status, err := t.deps.Sandbox.Restart(project.Name)
	if errors.Is(err, sandbox.ErrNotRunning) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"no sandbox has been started for '%s'; use sandbox_start", project.Name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("restart sandbox: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Restarted `%s`%s (PID %d) for %s.", status.Command, portNote(status.Port), status.PID, project.Name)), nil
}

// SandboxStatusTool reports the state of a project's sandbox.
type SandboxStatusTool struct {
	deps *Deps
}

func NewSandboxStatusTool(deps *Deps) *SandboxStatusTool { return &SandboxStatusTool{deps: deps} }

func (t *SandboxStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("sandbox_status",
		mcp.WithDescription("Get the status of the project's sandbox process: state, PID, port, and buffered log counts."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
	)
}

func (t *SandboxStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	status := t.deps.Sandbox.Status(project.Name)
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "State: %s\n", status.State)
	if status.Command != "" {
		fmt.Fprintf(&b, "Command: %s\n", status.Command)
	}
	if status.PID > 0 {
		fmt.Fprintf(&b, "PID: %d\n", status.PID)
	}
	if status.Port > 0 {
		fmt.Fprintf(&b, "Port: %d\n", status.Port)
	}
	if status.UptimeSec > 0 {
		fmt.Fprintf(&b, "Uptime: %ds\n", status.UptimeSec)
	}
	fmt.Fprintf(&b, "Log lines: %d (%d errors, %d warnings)\n", status.LogLines, status.Errors, status.Warnings)
	return mcp.NewToolResultText(b.String()), nil
}

// SandboxLogsTool reads the ring-buffered output of a project's sandbox.
type SandboxLogsTool struct {
	deps *Deps
}

func NewSandboxLogsTool(deps *Deps) *SandboxLogsTool { return &SandboxLogsTool{deps: deps} }

func (t *SandboxLogsTool) Definition() mcp.Tool {
	return mcp.NewTool("sandbox_logs",
		mcp.WithDescription("Get recent sandbox output for a project. Optionally filter to errors or warnings only."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
		mcp.WithNumber("lines", mcp.Description("Number of lines to return. Default: 50.")),
		mcp.WithString("filter",
			mcp.Description("Keep only lines that look like errors or warnings."),
			mcp.Enum("error", "warning"),
		),
	)
}

func (t *SandboxLogsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	filter := req.GetString("filter", "")
	lines, err := t.deps.Sandbox.Logs(project.Name, intArg(req, "lines", 50), filter)
	if errors.Is(err, sandbox.ErrNotRunning) {
		return mcp.NewToolResultError(fmt.Sprintf("no sandbox has run for '%s' yet", project.Name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note := ""
	if filter != "" {
		note = fmt.Sprintf(" (filter: %s)", filter)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No sandbox output buffered for %s%s.", project.Name, note)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Lines: %d%s\n\n", len(lines), note)
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	return mcp.NewToolResultText(b.String()), nil
}

// SandboxTestTool runs the project's test suite once and reports the outcome.
type SandboxTestTool struct {
	deps *Deps
}

func NewSandboxTestTool(deps *Deps) *SandboxTestTool { return &SandboxTestTool{deps: deps} }

func (t *SandboxTestTool) Definition() mcp.Tool {
	return mcp.NewTool("sandbox_test",
		mcp.WithDescription(
			"Run the project's test suite and return results. Auto-detects the test command "+
				"(npm test, pytest) or accepts an override.",
		),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
		mcp.WithString("command", mcp.Description("Override test command. Auto-detected if omitted.")),
	)
}

func (t *SandboxTestTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	result, err := t.deps.Sandbox.RunTests(ctx, project.Name, project.Path, req.GetString("command", ""))
	if errors.Is(err, sandbox.ErrNoCommand) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"no runnable command detected for '%s': pass a 'command' argument (e.g. 'npm test')", project.Name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run tests: %v", err)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Command: %s\n", result.Command)
	fmt.Fprintf(&b, "Passed: %t\n", result.Passed)
	fmt.Fprintf(&b, "Exit code: %d\n", result.ExitCode)
	fmt.Fprintf(&b, "Duration: %s\n", result.Duration)
	if result.TimedOut {
		b.WriteString("Test command timed out after 120 seconds.\n")
	}
	if result.Stdout != "" {
		fmt.Fprintf(&b, "\nStdout (tail):\n%s\n", result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprintf(&b, "\nStderr (tail):\n%s\n", result.Stderr)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func portNote(port int) string {
	if port <= 0 {
		return ""
	}
	return fmt.Sprintf(" on port %d", port)
}
