// Package sandbox mirrors the CLI's own sandbox settings schema so
// ClaudeAgentOptions.Sandbox can be marshaled straight into the
// --settings JSON blob the launch command line passes through
// internal/cli, without this SDK reimplementing sandbox enforcement
// itself.
package sandbox

// NetworkConfig narrows what a sandboxed CLI process may reach on the
// network, beyond the default of nothing.
type NetworkConfig struct {
	AllowUnixSockets    []string `json:"allowUnixSockets,omitempty"`
	AllowAllUnixSockets *bool    `json:"allowAllUnixSockets,omitempty"`
	AllowLocalBinding   *bool    `json:"allowLocalBinding,omitempty"` // macOS only
	HTTPProxyPort       *int     `json:"httpProxyPort,omitempty"`
	SOCKSProxyPort      *int     `json:"socksProxyPort,omitempty"`
}

// IgnoreViolations lists sandbox violations to log but not block on, split
// by category.
type IgnoreViolations struct {
	File    []string `json:"file,omitempty"`
	Network []string `json:"network,omitempty"`
}

// Settings is the sandbox configuration block embedded in
// ClaudeAgentOptions. Everything is a pointer or a slice so an unset field
// is omitted from the marshaled settings JSON rather than sent as an
// explicit false/zero value that could override a CLI default.
type Settings struct {
	Enabled                   *bool             `json:"enabled,omitempty"`
	AutoAllowBashIfSandboxed  *bool             `json:"autoAllowBashIfSandboxed,omitempty"`
	ExcludedCommands          []string          `json:"excludedCommands,omitempty"`
	AllowUnsandboxedCommands  *bool             `json:"allowUnsandboxedCommands,omitempty"`
	Network                   *NetworkConfig    `json:"network,omitempty"`
	IgnoreViolations          *IgnoreViolations `json:"ignoreViolations,omitempty"`
	EnableWeakerNestedSandbox *bool             `json:"enableWeakerNestedSandbox,omitempty"`
}
