package main

import (
	multipalmcp "github.com/hyperengineering/multipal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for coding agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

This exposes Multipal operations (clone, instances, toggle, backup,
restore, ask) as tools for coding agents.

Environment variables:
  MULTIPAL_PROFILE_PATH    Path to local profile database
  MULTIPAL_UID             User ID for the session
  MULTIPAL_BACKUP          Backup backend: auto, drive, or mock
  MULTIPAL_DRIVE_BASE_URL  Base URL of the drive API
  MULTIPAL_DRIVE_CLIENT_ID OAuth client ID for the drive API
  MULTIPAL_DRIVE_TOKEN     OAuth refresh token for the drive API
  ANTHROPIC_API_KEY        Enables the real support assistant`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	client, cleanup, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Tools that reach the provider need it authenticated up front; the
	// MCP session has no interactive sign-in step.
	if err := authenticate(cmd, client); err != nil {
		return err
	}

	server := multipalmcp.NewServer(client)
	return server.Run()
}
