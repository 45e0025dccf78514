// Package mcp holds the configuration types for external Model Context
// Protocol servers that the Claude CLI connects out to (stdio, SSE, HTTP),
// plus the status snapshot type returned by the mcp_status control request.
//
// The agent SDK never hosts an MCP server in-process: any mcp_message
// control request the CLI sends is answered with a JSON-RPC "method not
// found" error by the protocol controller.
package mcp
