package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkwire-games/darkwire/api"
	"github.com/darkwire-games/darkwire/game/engine"
	"github.com/darkwire-games/darkwire/game/session"
)

// startOps serves a real ops API over a test HTTP server and returns an MCP
// client pointed at it.
func startOps(t *testing.T) (*Client, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(engine.DefaultCatalog())
	srv := httptest.NewServer(api.NewServer(sessions, prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), sessions
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080")
	require.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
}

func TestHealthTool(t *testing.T) {
	client, _ := startOps(t)

	result := callTool(t, client.handleHealth, map[string]interface{}{})
	assert.Contains(t, resultText(t, result), "ok")
}

func TestListSessionsEmpty(t *testing.T) {
	client, _ := startOps(t)

	result := callTool(t, client.handleListSessions, map[string]interface{}{})
	assert.Contains(t, resultText(t, result), "No live sessions")
}

func TestListSessions(t *testing.T) {
	client, sessions := startOps(t)
	s := sessions.Activate(uuid.Nil)
	s.With(func(e *engine.Engine) { e.Activate("nyx", 0) })

	result := callTool(t, client.handleListSessions, map[string]interface{}{})
	text := resultText(t, result)
	assert.Contains(t, text, s.ID.String())
	assert.Contains(t, text, "phase: building")
	assert.Contains(t, text, "users: 1")
}

func TestGetSession(t *testing.T) {
	client, sessions := startOps(t)
	s := sessions.Activate(uuid.Nil)
	s.With(func(e *engine.Engine) {
		e.Activate("nyx", 0)
		e.Build("nyx", engine.AttrArray{2, 2, 2, 2}, []uint32{1})
	})

	result := callTool(t, client.handleGetSession, map[string]interface{}{
		"session_id": s.ID.String(),
	})
	text := resultText(t, result)
	assert.Contains(t, text, "first contact")
	assert.Contains(t, text, "nyx")
	assert.Contains(t, text, "built")
	assert.Contains(t, text, "alive")
}

func TestGetSessionMissingID(t *testing.T) {
	client, _ := startOps(t)

	result := callTool(t, client.handleGetSession, map[string]interface{}{})
	assert.True(t, result.IsError)
}

func TestGetSessionNotFound(t *testing.T) {
	client, _ := startOps(t)

	result := callTool(t, client.handleGetSession, map[string]interface{}{
		"session_id": uuid.New().String(),
	})
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")
}

func TestAPICallUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	err := client.apiCall("GET", "/healthz", nil, nil)
	assert.Error(t, err)
}

func TestAPICallErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"error":"kettle only"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.apiCall("GET", "/anything", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "kettle only", err.Error())
}
