package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/knoweval/internal/audit"
	mcpserver "github.com/ziadkadry99/knoweval/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing note and evaluation tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		s := a.newSession(audit.SourceMCP)
		fmt.Fprintf(os.Stderr, "knoweval MCP server started on stdio (knowledge=%s, model=%s)\n", a.cfg.KnowledgeDir, a.cfg.Model)

		return mcpserver.NewServer(s, a.cfg.Model, a.log).Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
