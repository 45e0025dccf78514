package mcp

// ServerType represents the type of MCP server.
type ServerType string

const (
	// ServerTypeStdio uses stdio for communication.
	ServerTypeStdio ServerType = "stdio"
	// ServerTypeSSE uses Server-Sent Events.
	ServerTypeSSE ServerType = "sse"
	// ServerTypeHTTP uses HTTP for communication.
	ServerTypeHTTP ServerType = "http"
)

// ServerConfig is the interface for MCP server configurations.
//
// The agent SDK only brokers connections to external MCP servers that the
// CLI itself spawns or dials; it never hosts an MCP server in-process. Any
// mcp_message control request that reaches this process is answered with a
// JSON-RPC "method not found" error regardless of server type.
type ServerConfig interface {
	GetType() ServerType
}

// Compile-time verification that all MCP server config types implement ServerConfig.
var (
	_ ServerConfig = (*StdioServerConfig)(nil)
	_ ServerConfig = (*SSEServerConfig)(nil)
	_ ServerConfig = (*HTTPServerConfig)(nil)
)

// StdioServerConfig configures a stdio-based MCP server.
type StdioServerConfig struct {
	Type    *ServerType       `json:"type,omitempty"` // Optional for backwards compatibility
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// GetType implements ServerConfig.
func (m *StdioServerConfig) GetType() ServerType {
	if m.Type != nil {
		return *m.Type
	}

	return ServerTypeStdio
}

// SSEServerConfig configures a Server-Sent Events MCP server.
type SSEServerConfig struct {
	Type    ServerType        `json:"type"` // "sse"
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// GetType implements ServerConfig.
func (m *SSEServerConfig) GetType() ServerType { return m.Type }

// HTTPServerConfig configures an HTTP-based MCP server.
type HTTPServerConfig struct {
	Type    ServerType        `json:"type"` // "http"
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// GetType implements ServerConfig.
func (m *HTTPServerConfig) GetType() ServerType { return m.Type }
