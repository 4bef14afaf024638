package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/darkwire-games/darkwire/api"
)

// Client is a thin MCP client that proxies to the ops API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the ops API at baseURL.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Darkwire Ops",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Darkwire Ops - MCP Interface

This is a thin client that proxies all requests to the read-only ops API.

AVAILABLE TOOLS:
- health: Check that the game server is up
- list_sessions: List live sessions (phase, turn, population)
- get_session: Inspect one session (mission, users, tokens, vitals)

Sessions advance only through the binary game protocol; these tools
observe, they never mutate.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "health",
		Description: "Check that the game server's ops endpoint is alive",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleHealth)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all live game sessions with phase, turn and user count",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get one session in detail, including per-user mission progress, tokens and machine vitals",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "UUID of the session to inspect",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status map[string]string
	if err := c.apiCall("GET", "/healthz", nil, &status); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Server status: %s", status["status"])), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sessions []api.SessionSummary
	if err := c.apiCall("GET", "/api/sessions", nil, &sessions); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(sessions) == 0 {
		return mcp.NewToolResultText("No live sessions."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Live Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(&b, "- %s (phase: %s, turn: %d, users: %d, created: %s)\n",
			s.ID, s.Phase, s.Turn, s.Users, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("missing arguments"), nil
	}
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var detail api.SessionDetail
	if err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionDetail(&detail)), nil
}

func formatSessionDetail(d *api.SessionDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", d.ID)
	fmt.Fprintf(&b, "Mission: %s\n", d.Mission)
	fmt.Fprintf(&b, "Phase: %s  Turn: %d  Tick: %d\n", d.Phase, d.Turn, d.Tick)
	fmt.Fprintf(&b, "Users (%d):\n", len(d.Users))
	for _, u := range d.Users {
		status := "alive"
		if u.Terminated {
			status = "terminated"
		}
		built := "building"
		if u.Built {
			built = "built"
		}
		fmt.Fprintf(&b, "- %s (%s, %s)\n", u.Name, built, status)
		fmt.Fprintf(&b, "  node: %d  known: %d  tokens: %d\n", u.CurrentNode, u.KnownNodes, len(u.Tokens))
		fmt.Fprintf(&b, "  ergs: %v  vitals: %v\n", u.Ergs, u.Vitals)
	}
	return b.String()
}
