// NAI Workbench engine: versioned knowledge snapshots ("fossils") of
// registered projects, a live tree-sitter symbol index, the MCP tool
// catalog for coding agents, per-project sandbox control, and the
// detective batch job that mines the tool audit log.
//
// Usage:
//
//	workbench serve              MCP stdio transport plus the ops HTTP API
//	workbench index <project>    run the custodian pipeline once
//	workbench detective          mine fossils and the audit log for insights
//	workbench admin              interactive terminal dashboard
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/tools"
)

// Version is stamped at build time via ldflags. The MCP handshake reports
// the same value through tools.Version.
var Version = "dev"

var (
	flagStore      string
	flagGrammarDir string
)

var rootCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Project knowledge and sandbox control engine",
	Long: `NAI Workbench keeps versioned knowledge snapshots ("fossils") of registered
projects, serves them to coding agents over MCP, and runs one dev sandbox
per project. The detective batch job mines the tool audit log for insights
and evolves the custodian prompt from what agents actually query.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := common.Logger()
		if err := godotenv.Load(); err != nil {
			logger.Warn("workbench: .env file not loaded", "error", err)
		} else {
			logger.Info("workbench: environment loaded from .env")
		}
		tools.Version = Version
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "",
		"path to the engine database (defaults to STORE_PATH, then the data dir)")
	rootCmd.PersistentFlags().StringVar(&flagGrammarDir, "grammar-dir", "",
		"extra directory searched for tree-sitter grammar libraries")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
