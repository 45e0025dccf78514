package mcp

// ServerStatus reports one configured MCP server's connection state, as
// returned by an mcp_status control request.
type ServerStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Status is the full mcp_status response: every configured server's
// ServerStatus, in the order the CLI reports them.
type Status struct {
	MCPServers []ServerStatus `json:"mcpServers"`
}
