package main

import (
	"fmt"
	"net/http"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/api"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/design"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/sandbox"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/tools"
)

const fallbackHTTPAddr = ":8787"

var (
	serveHTTPAddr string
	serveNoHTTP   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP catalog on stdio and the ops API over HTTP",
	Long: `Serve runs the engine: the seventeen-tool MCP catalog on stdio for coding
agents, plus the ops HTTP API for dashboards and scripts.

Stdout belongs to the MCP transport; all logging goes to stderr. The process
exits when the MCP client disconnects or the HTTP listener fails. Sandbox
processes run in their own process groups and survive an engine restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", "",
		"ops API listen address (defaults to WORKBENCH_HTTP_ADDR, then "+fallbackHTTPAddr+")")
	serveCmd.Flags().BoolVar(&serveNoHTTP, "no-http", false, "serve MCP stdio only")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := common.Logger()

	eng, err := openEngine()
	if err != nil {
		logger.Error("workbench: engine startup failed", "error", err)
		return err
	}
	defer eng.Close()

	deps := &tools.Deps{
		Store:    eng.store,
		Pipeline: eng.pipeline,
		Sandbox:  sandbox.NewManager(),
		Indexer:  eng.indexer,
		Design:   design.NewFromEnv(),
	}
	mcpSrv := tools.New(deps)

	stdioDone := make(chan error, 1)
	go func() {
		stdioDone <- mcpserver.ServeStdio(mcpSrv)
	}()
	logger.Info("workbench: mcp catalog serving", "transport", "stdio", "version", Version)

	httpDone := make(chan error, 1)
	if serveNoHTTP {
		logger.Info("workbench: ops api disabled")
	} else {
		srv, err := api.NewServer(eng.store, eng.pipeline)
		if err != nil {
			logger.Error("workbench: ops api construction failed", "error", err)
			return err
		}
		addr := strings.TrimSpace(serveHTTPAddr)
		if addr == "" {
			addr = envOr("WORKBENCH_HTTP_ADDR", fallbackHTTPAddr)
		}
		go func() {
			httpDone <- http.ListenAndServe(addr, srv)
		}()
		reachable := addr
		if strings.HasPrefix(reachable, ":") {
			reachable = "localhost" + reachable
		}
		logger.Info("workbench: ops api listening", "addr", addr,
			"suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	}

	select {
	case err := <-stdioDone:
		if err != nil {
			logger.Error("workbench: mcp transport stopped", "error", err)
			return fmt.Errorf("mcp stdio: %w", err)
		}
		logger.Info("workbench: mcp client disconnected")
		return nil
	case err := <-httpDone:
		logger.Error("workbench: ops api stopped", "error", err)
		return fmt.Errorf("ops api: %w", err)
	}
}
