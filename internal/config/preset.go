package config

// Beta names an opt-in CLI beta feature, passed through --betas on the
// launch command line built by internal/cli.
type Beta string

const (
	// BetaContext1M requests the 1M-token context window beta.
	BetaContext1M Beta = "context-1m-2025-08-07"
)

// SettingSource names one layer of the CLI's settings hierarchy that
// ClaudeAgentOptions.SettingSources can restrict loading to.
type SettingSource string

const (
	SettingSourceUser    SettingSource = "user"
	SettingSourceProject SettingSource = "project"
	SettingSourceLocal   SettingSource = "local"
)

// ToolsPreset selects a named bundle of built-in tools instead of an
// explicit ToolsList.
type ToolsPreset struct {
	Type   string `json:"type"`
	Preset string `json:"preset"`
}

// AgentDefinition describes one subagent the CLI can dispatch work to,
// keyed by name in ClaudeAgentOptions.Agents.
type AgentDefinition struct {
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Tools       []string `json:"tools,omitempty"`
	Model       *string  `json:"model,omitempty"`
}

// SystemPromptPreset selects the CLI's built-in system prompt, optionally
// with extra text appended rather than replaced outright.
type SystemPromptPreset struct {
	Type   string  `json:"type"`
	Preset string  `json:"preset"`
	Append *string `json:"append,omitempty"`
}

// PluginConfig points at a plugin directory the CLI should load at
// startup.
type PluginConfig struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// ToolsConfig is satisfied by both ways ClaudeAgentOptions can constrain
// the CLI's tool set: an explicit ToolsList or a named ToolsPreset. The
// unexported marker method exists only to close the interface to these two
// implementations.
type ToolsConfig interface {
	toolsConfig()
}

// ToolsList enumerates the tools the CLI may use by name.
type ToolsList []string

func (ToolsList) toolsConfig() {}

func (*ToolsPreset) toolsConfig() {}
