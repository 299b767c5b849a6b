// ABOUTME: MCP command starts a Model Context Protocol server
// ABOUTME: Lets LLM agents ask the support bot and search its knowledge via stdio
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the support bot as an MCP (Model Context Protocol) server so agents
can ask support questions, search the knowledge base, and read
conversation history over stdio. Logs go to stderr.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  supportbot mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "support": {
  #       "command": "supportbot",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	collector := core.NewCollector()
	a, err := newApp(cmd.Context(), cfg, collector, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	server := mcpserver.NewMCPServer(
		"Support Bot",
		versionInfo.Version,
	)

	var archive mcp.HistoryArchive
	if a.archive != nil {
		archive = a.archive
	}
	mcp.RegisterTools(server, a.orch, collector, a.knowledge, a.store, archive, a.logger)

	a.logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-cmd.Context().Done():
		a.logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
