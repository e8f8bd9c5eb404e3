package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
)

const indexPollInterval = 200 * time.Millisecond

var indexCmd = &cobra.Command{
	Use:   "index <project>",
	Short: "Run the custodian pipeline once for a project",
	Long: `Index runs one pipeline pass for a registered project: inventory the
tree, extract symbols, collect recent git history, transform, and persist
a new fossil version. The command waits for the run and reports each step
as it completes. Ctrl-C cancels the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexOnce,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndexOnce(cmd *cobra.Command, args []string) error {
	logger := common.Logger()

	eng, err := openEngine()
	if err != nil {
		logger.Error("workbench: engine startup failed", "error", err)
		return err
	}
	defer eng.Close()

	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	project, err := eng.store.ResolveProject(ctx, args[0])
	if err != nil {
		logger.Error("workbench: project lookup failed", "project", args[0], "error", err)
		return err
	}

	runID, err := eng.pipeline.Start(project)
	if err != nil {
		logger.Error("workbench: pipeline start failed", "project", project.Name, "error", err)
		return err
	}
	fmt.Printf("Indexing %s (run %s)\n", project.Name, runID)

	ticker := time.NewTicker(indexPollInterval)
	defer ticker.Stop()
	reported := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			// First interrupt cancels the run; restoring default signal
			// handling lets a second one kill the process outright.
			stopSignals()
			fmt.Println("Stopping run...")
			if err := eng.pipeline.Stop(project.Name); err != nil &&
				!errors.Is(err, pipeline.ErrRunNotRunning) && !errors.Is(err, pipeline.ErrRunNotFound) {
				logger.Error("workbench: pipeline stop failed", "project", project.Name, "error", err)
				return err
			}
			ctx = context.Background()
		case <-ticker.C:
			state := eng.pipeline.Status(project.Name)
			reportSteps(state, reported)
			if state.Running {
				continue
			}
			return finishRun(state)
		}
	}
}

// reportSteps prints each step once when it reaches a terminal status.
func reportSteps(state pipeline.State, reported map[string]bool) {
	for _, step := range state.Steps {
		if reported[step.Name] {
			continue
		}
		switch step.Status {
		case pipeline.StepCompleted:
			reported[step.Name] = true
			if step.Message != "" {
				fmt.Printf("  %-18s %s\n", step.Name, step.Message)
			} else {
				fmt.Printf("  %-18s ok\n", step.Name)
			}
		case pipeline.StepError:
			reported[step.Name] = true
			fmt.Printf("  %-18s failed: %s\n", step.Name, step.Message)
		}
	}
}

func finishRun(state pipeline.State) error {
	switch state.Status {
	case "done":
		fmt.Printf("Fossil v%d stored (%d symbols)\n", state.Version, state.Symbols)
		return nil
	case "canceled":
		fmt.Println("Run canceled.")
		return nil
	default:
		if state.Error != "" {
			return fmt.Errorf("run failed: %s", state.Error)
		}
		return fmt.Errorf("run ended with status %q", state.Status)
	}
}
