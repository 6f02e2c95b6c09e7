package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/lockbox/internal/secure"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *secure.Storage
}

// NewMCPServer creates an MCP server exposing the secure store as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"lockbox",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("lockbox — local secure key-value storage for secrets and tokens."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("read_secret",
			mcp.WithDescription("Read the value stored under a key."),
			mcp.WithString("key", mcp.Description("Secret key"), mcp.Required()),
		),
		mcpReadSecret(deps),
	)

	s.AddTool(
		mcp.NewTool("write_secret",
			mcp.WithDescription("Store a value under a key, replacing any existing value."),
			mcp.WithString("key", mcp.Description("Secret key"), mcp.Required()),
			mcp.WithString("value", mcp.Description("Value to store"), mcp.Required()),
		),
		mcpWriteSecret(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_secret",
			mcp.WithDescription("Delete the value stored under a key."),
			mcp.WithString("key", mcp.Description("Secret key"), mcp.Required()),
		),
		mcpDeleteSecret(deps),
	)

	s.AddTool(
		mcp.NewTool("list_keys",
			mcp.WithDescription("List all stored secret keys. Values are not returned."),
		),
		mcpListKeys(deps),
	)

	return s
}

func mcpReadSecret(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}

		value, err := deps.Store.Read(ctx, key, nil)
		if err != nil {
			return mcpError(fmt.Sprintf("read failed: %v", err)), nil
		}
		if value == nil {
			return mcpError(fmt.Sprintf("no secret stored for key %q", key)), nil
		}
		return mcpText(*value), nil
	}
}

func mcpWriteSecret(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		if err := deps.Store.Write(ctx, key, &value, nil); err != nil {
			return mcpError(fmt.Sprintf("write failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Stored secret %s", key)), nil
	}
}

func mcpDeleteSecret(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}

		if err := deps.Store.Delete(ctx, key, nil); err != nil {
			return mcpError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Deleted secret %s", key)), nil
	}
}

func mcpListKeys(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		all, err := deps.Store.ReadAll(ctx, nil)
		if err != nil {
			return mcpError(fmt.Sprintf("list failed: %v", err)), nil
		}

		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b, err := json.Marshal(keys)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal keys: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
