package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/tui"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Interactive terminal dashboard",
	Long: `Admin opens the terminal dashboard: registered projects with their fossil
versions, a registration form, live reindex progress, and the insight
browser.`,
	Args: cobra.NoArgs,
	RunE: runAdmin,
}

func init() {
	rootCmd.AddCommand(adminCmd)
}

func runAdmin(cmd *cobra.Command, args []string) error {
	logger := common.Logger()

	eng, err := openEngine()
	if err != nil {
		logger.Error("workbench: engine startup failed", "error", err)
		return err
	}
	defer eng.Close()

	model := tui.New(eng.store, eng.pipeline, Version)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		logger.Error("workbench: admin ui failed", "error", err)
		return err
	}
	return nil
}
