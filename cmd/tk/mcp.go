package main

import (
	"fmt"

	"github.com/amonks/tasks/chat"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve task tools to MCP clients over stdio",
	Long: `Serve task tools to MCP clients over stdio.

Logs go to the configured log output; stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	if app.cfg.Log.Output == "stdout" {
		return fmt.Errorf("log output stdout would corrupt the MCP stream; use stderr or a file")
	}
	bot := chat.NewBot(app.svc, chat.BotOptions{Logger: app.logger})
	return chat.Serve(chat.NewMCPServer(app.svc, bot, buildVersion))
}
