// Package mcp exposes multipal operations as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperengineering/multipal"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with Multipal tools.
type Server struct {
	client    *multipal.Client
	mcpServer *server.MCPServer
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with Multipal tools registered.
func NewServer(client *multipal.Client) *Server {
	s := &Server{client: client}

	s.mcpServer = server.NewMCPServer(
		"multipal",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "multipal_clone", Description: "Clone an app from the catalog into a new isolated instance"},
		{Name: "multipal_instances", Description: "List cloned instances with their catalog details and running state"},
		{Name: "multipal_toggle", Description: "Start or stop a cloned instance; at most one instance per app runs at a time"},
		{Name: "multipal_backup", Description: "Upload a backup snapshot of the current state to the configured provider"},
		{Name: "multipal_restore", Description: "Replace local state with the latest backup snapshot (requires confirm: true)"},
		{Name: "multipal_ask", Description: "Ask the Multipal support assistant a question about the app"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "multipal_clone":
		return s.handleClone(ctx, args)
	case "multipal_instances":
		return s.handleInstances(ctx, args)
	case "multipal_toggle":
		return s.handleToggle(ctx, args)
	case "multipal_backup":
		return s.handleBackup(ctx, args)
	case "multipal_restore":
		return s.handleRestore(ctx, args)
	case "multipal_ask":
		return s.handleAsk(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	// multipal_clone
	s.mcpServer.AddTool(mcp.NewTool("multipal_clone",
		mcp.WithDescription("Clone an app from the catalog into a new isolated instance. The new instance is appended to the sequence and starts stopped."),
		mcp.WithString("package",
			mcp.Description("Package name of the catalog app to clone (e.g. com.social.app)"),
			mcp.Required(),
		),
		mcp.WithString("name",
			mcp.Description("Display name for the new instance (default: auto-numbered from the app name)"),
		),
	), s.mcpHandleClone)

	// multipal_instances
	s.mcpServer.AddTool(mcp.NewTool("multipal_instances",
		mcp.WithDescription("List cloned instances in creation order with catalog details and running state."),
	), s.mcpHandleInstances)

	// multipal_toggle
	s.mcpServer.AddTool(mcp.NewTool("multipal_toggle",
		mcp.WithDescription("Start or stop a cloned instance by ID. Starting is rejected while another instance of the same app is running."),
		mcp.WithString("id",
			mcp.Description("Instance ID to toggle"),
			mcp.Required(),
		),
	), s.mcpHandleToggle)

	// multipal_backup
	s.mcpServer.AddTool(mcp.NewTool("multipal_backup",
		mcp.WithDescription("Upload a backup snapshot of the current instances and settings to the configured provider. Requires provider authentication."),
	), s.mcpHandleBackup)

	// multipal_restore
	s.mcpServer.AddTool(mcp.NewTool("multipal_restore",
		mcp.WithDescription("Replace local instances and settings with the latest backup snapshot. Destructive; pass confirm: true to proceed."),
		mcp.WithBoolean("confirm",
			mcp.Description("Must be true to replace local state"),
			mcp.Required(),
		),
	), s.mcpHandleRestore)

	// multipal_ask
	s.mcpServer.AddTool(mcp.NewTool("multipal_ask",
		mcp.WithDescription("Ask the Multipal support assistant a question about cloning, backups, or settings."),
		mcp.WithString("question",
			mcp.Description("The question to ask"),
			mcp.Required(),
		),
	), s.mcpHandleAsk)
}

// MCP handlers that wrap internal handlers

func (s *Server) mcpHandleClone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleClone(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleInstances(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleInstances(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleToggle(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleBackup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleBackup(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleRestore(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleAsk(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handleClone(ctx context.Context, args map[string]any) (*ToolResult, error) {
	pkg, ok := args["package"].(string)
	if !ok || pkg == "" {
		return &ToolResult{Content: "package is required", IsError: true}, nil
	}

	name, _ := args["name"].(string)

	inst, err := s.client.CloneApp(pkg, name)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("clone failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: formatCloneResult(inst)}, nil
}

func (s *Server) handleInstances(ctx context.Context, args map[string]any) (*ToolResult, error) {
	views := s.client.Instances()
	running := s.client.Running()
	return &ToolResult{Content: formatInstanceList(views, running)}, nil
}

func (s *Server) handleToggle(ctx context.Context, args map[string]any) (*ToolResult, error) {
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return &ToolResult{Content: "id is required", IsError: true}, nil
	}

	result, err := s.client.ToggleInstance(id)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("toggle failed: %v", err), IsError: true}, nil
	}

	switch result {
	case multipal.ToggleStarted:
		return &ToolResult{Content: fmt.Sprintf("Instance %s started", id)}, nil
	case multipal.ToggleStopped:
		return &ToolResult{Content: fmt.Sprintf("Instance %s stopped", id)}, nil
	default:
		return &ToolResult{Content: "Another instance of this app is already running. Stop it first.", IsError: true}, nil
	}
}

func (s *Server) handleBackup(ctx context.Context, args map[string]any) (*ToolResult, error) {
	if err := s.client.BackupNow(ctx); err != nil {
		return &ToolResult{Content: fmt.Sprintf("backup failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: "Backup uploaded successfully"}, nil
}

func (s *Server) handleRestore(ctx context.Context, args map[string]any) (*ToolResult, error) {
	confirm, _ := args["confirm"].(bool)
	if !confirm {
		return &ToolResult{Content: "restore replaces local state; pass confirm: true to proceed", IsError: true}, nil
	}

	snap, err := s.client.RestoreLatest(ctx, nil)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("restore failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: fmt.Sprintf("Restored %d instances from backup taken %s",
		len(snap.ClonedApps), snap.BackupDate.Format("2006-01-02 15:04:05 MST"))}, nil
}

func (s *Server) handleAsk(ctx context.Context, args map[string]any) (*ToolResult, error) {
	question, ok := args["question"].(string)
	if !ok || question == "" {
		return &ToolResult{Content: "question is required", IsError: true}, nil
	}

	answer, err := s.client.Ask(ctx, question)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("ask failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: answer}, nil
}

// Formatting functions

func formatCloneResult(inst multipal.ClonedInstance) string {
	return fmt.Sprintf("Cloned instance [%s]:\n  Name: %s\n  Package: %s\n  Storage: %s\n  Battery: %s",
		inst.ID, inst.InstanceName, inst.PackageName, inst.StorageUsed, inst.BatteryUsage)
}

func formatInstanceList(views []multipal.InstanceView, running map[string]string) string {
	if len(views) == 0 {
		return "No cloned instances."
	}

	runningIDs := make(map[string]bool, len(running))
	for _, id := range running {
		runningIDs[id] = true
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d cloned instances:\n\n", len(views)))
	for _, v := range views {
		state := "stopped"
		if runningIDs[v.ID] {
			state = "running"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s (%s)\n", v.ID, v.InstanceName, v.App.Name))
		sb.WriteString(fmt.Sprintf("    Package: %s  Storage: %s  Battery: %s  State: %s\n",
			v.PackageName, v.StorageUsed, v.BatteryUsage, state))
	}
	return sb.String()
}
