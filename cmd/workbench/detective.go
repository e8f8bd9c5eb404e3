package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/detective"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/llm"
)

var detectiveRefine bool

var detectiveCmd = &cobra.Command{
	Use:   "detective [project]",
	Short: "Mine fossil history and the audit log for insights",
	Long: `Detective runs one batch analysis over fossil history and the tool audit
log: files that change together, modules that keep growing, patterns
repeated or abandoned across projects. Without a project argument it
analyzes every active project.

With --refine-prompt it instead rewrites the global custodian prompt from
what agents actually query, appending a new prompt version.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetective,
}

func init() {
	rootCmd.AddCommand(detectiveCmd)
	detectiveCmd.Flags().BoolVar(&detectiveRefine, "refine-prompt", false,
		"evolve the global custodian prompt instead of mining insights")
}

func runDetective(cmd *cobra.Command, args []string) error {
	logger := common.Logger()

	st, err := openStore()
	if err != nil {
		logger.Error("workbench: store open failed", "error", err)
		return err
	}
	defer st.Close()

	runner, err := detective.NewRunner(st, llm.NewProvider())
	if err != nil {
		logger.Error("workbench: detective construction failed", "error", err)
		return err
	}

	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if detectiveRefine {
		report, err := runner.RefinePrompt(ctx)
		if err != nil {
			logger.Error("workbench: prompt refinement failed", "error", err)
			return err
		}
		fmt.Printf("Refinement run %s\n", report.RunID)
		if report.Analysis != "" {
			fmt.Println(report.Analysis)
		}
		for _, change := range report.Changes {
			fmt.Printf("  - %s\n", change)
		}
		return nil
	}

	projectRef := ""
	if len(args) > 0 {
		projectRef = args[0]
	}
	report, err := runner.Run(ctx, projectRef)
	if err != nil {
		logger.Error("workbench: detective run failed", "error", err)
		return err
	}
	scope := report.Project
	if scope == "" {
		scope = "all active projects"
	}
	if report.Raw {
		fmt.Printf("Run %s stored 1 raw insight for %s (output did not parse as JSON)\n", report.RunID, scope)
		return nil
	}
	fmt.Printf("Run %s stored %d insights for %s\n", report.RunID, report.Insights, scope)
	return nil
}
