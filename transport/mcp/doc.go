// Package mcp exposes the ops API over the Model Context Protocol.
//
// The mcp package implements:
//   - An MCP server wrapping the read-only ops HTTP endpoints
//   - Tool definitions for session inspection
//   - Formatted text results for agent consumption
//
// MCP Tools:
//
// The package exposes the following tools:
//   - health: Check that the ops server is reachable and alive
//   - list_sessions: List all live sessions with phase and population
//   - get_session: Get one session in detail, including per-user state
//
// The client is a thin proxy: every tool call becomes an HTTP request to
// the ops API, so the MCP surface inherits the same read-only guarantees.
// Game mutations still travel the binary protocol through the router.
package mcp
