// Package hook models the payloads exchanged for the hook side of the
// CallbackDispatcher (spec.md §4.3.4): typed decoded inputs for each event
// the CLI can fire a hook_callback control request for, and the JSON shapes
// a registered Callback can hand back.
package hook

import "context"

// Event names one of the lifecycle points a hook can be registered against.
// These are exactly the matcher keys spec.md's hook configuration accepts.
type Event string

const (
	EventPreToolUse         Event = "PreToolUse"
	EventPostToolUse        Event = "PostToolUse"
	EventUserPromptSubmit   Event = "UserPromptSubmit"
	EventStop               Event = "Stop"
	EventSubagentStop       Event = "SubagentStop"
	EventPreCompact         Event = "PreCompact"
	EventPostToolUseFailure Event = "PostToolUseFailure"
	EventNotification       Event = "Notification"
	EventSubagentStart      Event = "SubagentStart"
	EventPermissionRequest  Event = "PermissionRequest"
)

// Input is implemented by every decoded hook payload. A Callback type-
// switches on the concrete type to reach event-specific fields; the five
// accessors here cover what every event carries regardless of which one
// fired.
type Input interface {
	GetHookEventName() Event
	GetSessionID() string
	GetTranscriptPath() string
	GetCwd() string
	GetPermissionMode() *string
}

var (
	_ Input = (*PreToolUseInput)(nil)
	_ Input = (*PostToolUseInput)(nil)
	_ Input = (*UserPromptSubmitInput)(nil)
	_ Input = (*StopInput)(nil)
	_ Input = (*SubagentStopInput)(nil)
	_ Input = (*PreCompactInput)(nil)
	_ Input = (*PostToolUseFailureInput)(nil)
	_ Input = (*NotificationInput)(nil)
	_ Input = (*SubagentStartInput)(nil)
	_ Input = (*PermissionRequestInput)(nil)
)

// BaseInput holds the fields present on every hook_callback request
// regardless of event, embedded into each concrete Input type below.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type BaseInput struct {
	SessionID      string  `json:"session_id"`
	TranscriptPath string  `json:"transcript_path"`
	Cwd            string  `json:"cwd"`
	PermissionMode *string `json:"permission_mode,omitempty"`
}

func (b *BaseInput) GetSessionID() string      { return b.SessionID }
func (b *BaseInput) GetTranscriptPath() string { return b.TranscriptPath }
func (b *BaseInput) GetCwd() string            { return b.Cwd }
func (b *BaseInput) GetPermissionMode() *string { return b.PermissionMode }

// ToolCallInput groups the fields shared by every hook that fires around an
// actual tool invocation (before it runs, after it succeeds, after it
// fails), so those three Input types don't each restate the same four fields.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type ToolCallInput struct {
	HookEventName string         `json:"hook_event_name"`
	ToolName      string         `json:"tool_name"`
	ToolInput     map[string]any `json:"tool_input"`
	ToolUseID     string         `json:"tool_use_id"`
}

// PreToolUseInput is delivered before the CLI invokes a tool, giving a
// registered hook a chance to inspect (and, via SyncJSONOutput, veto) it.
type PreToolUseInput struct {
	BaseInput
	ToolCallInput
}

func (p *PreToolUseInput) GetHookEventName() Event { return EventPreToolUse }

// PostToolUseInput is delivered after a tool call completes successfully.
type PostToolUseInput struct {
	BaseInput
	ToolCallInput
	ToolResponse any `json:"tool_response"`
}

func (p *PostToolUseInput) GetHookEventName() Event { return EventPostToolUse }

// PostToolUseFailureInput is delivered when a tool call fails or is
// interrupted instead of completing.
type PostToolUseFailureInput struct {
	BaseInput
	ToolCallInput
	Error       string `json:"error"`
	IsInterrupt *bool  `json:"is_interrupt,omitempty"`
}

func (p *PostToolUseFailureInput) GetHookEventName() Event { return EventPostToolUseFailure }

// UserPromptSubmitInput is delivered when the user (or the caller, in the
// SDK's case) submits a new prompt into the conversation.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type UserPromptSubmitInput struct {
	BaseInput
	HookEventName string `json:"hook_event_name"`
	Prompt        string `json:"prompt"`
}

func (u *UserPromptSubmitInput) GetHookEventName() Event { return EventUserPromptSubmit }

// StopInput is delivered when the top-level agent loop is about to stop.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type StopInput struct {
	BaseInput
	HookEventName  string `json:"hook_event_name"`
	StopHookActive bool   `json:"stop_hook_active"`
}

func (s *StopInput) GetHookEventName() Event { return EventStop }

// SubagentStopInput is delivered when a subagent's loop is about to stop.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type SubagentStopInput struct {
	BaseInput
	HookEventName       string `json:"hook_event_name"`
	StopHookActive      bool   `json:"stop_hook_active"`
	AgentID             string `json:"agent_id"`
	AgentTranscriptPath string `json:"agent_transcript_path"`
	AgentType           string `json:"agent_type"`
}

func (s *SubagentStopInput) GetHookEventName() Event { return EventSubagentStop }

// NotificationInput is delivered for a CLI-originated notification (idle
// timeout warnings, permission prompts surfaced to a human, etc).
//
//nolint:tagliatelle // Claude CLI uses snake_case
type NotificationInput struct {
	BaseInput
	HookEventName    string  `json:"hook_event_name"`
	Message          string  `json:"message"`
	Title            *string `json:"title,omitempty"`
	NotificationType string  `json:"notification_type"`
}

func (n *NotificationInput) GetHookEventName() Event { return EventNotification }

// SubagentStartInput is delivered when a subagent begins running.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type SubagentStartInput struct {
	BaseInput
	HookEventName string `json:"hook_event_name"`
	AgentID       string `json:"agent_id"`
	AgentType     string `json:"agent_type"`
}

func (s *SubagentStartInput) GetHookEventName() Event { return EventSubagentStart }

// PermissionRequestInput is delivered when the CLI is about to ask for a
// tool permission decision, ahead of (and independent from) the
// CanUseTool callback itself.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type PermissionRequestInput struct {
	BaseInput
	HookEventName         string         `json:"hook_event_name"`
	ToolName              string         `json:"tool_name"`
	ToolInput             map[string]any `json:"tool_input"`
	PermissionSuggestions []any          `json:"permission_suggestions"`
}

func (p *PermissionRequestInput) GetHookEventName() Event { return EventPermissionRequest }

// PreCompactInput is delivered before the CLI compacts conversation
// history, manually or automatically.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type PreCompactInput struct {
	BaseInput
	HookEventName      string  `json:"hook_event_name"`
	Trigger            string  `json:"trigger"` // "manual" or "auto"
	CustomInstructions *string `json:"custom_instructions,omitempty"`
}

func (p *PreCompactInput) GetHookEventName() Event { return EventPreCompact }

// JSONOutput is a marker for whatever a Callback returns — either a
// SyncJSONOutput (the common case: decide now) or an AsyncJSONOutput
// (defer the decision, subject to a timeout the CLI enforces).
type JSONOutput any

var (
	_ JSONOutput = (*AsyncJSONOutput)(nil)
	_ JSONOutput = (*SyncJSONOutput)(nil)
)

// AsyncJSONOutput tells the CLI this hook's decision isn't ready yet.
type AsyncJSONOutput struct {
	Async        bool `json:"async"`
	AsyncTimeout *int `json:"asyncTimeout,omitempty"` // milliseconds
}

// SyncJSONOutput carries an immediate hook decision. Every field is
// optional; Session.convertHookOutput only serializes the ones that are
// set, defaulting to Continue=true when the whole struct is empty.
type SyncJSONOutput struct {
	Continue           *bool          `json:"continue,omitempty"`
	SuppressOutput     *bool          `json:"suppressOutput,omitempty"`
	StopReason         *string        `json:"stopReason,omitempty"`
	Decision           *string        `json:"decision,omitempty"` // "block"
	SystemMessage      *string        `json:"systemMessage,omitempty"`
	Reason             *string        `json:"reason,omitempty"`
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// SpecificOutput is implemented by each event's optional extra output
// payload, nested under SyncJSONOutput.HookSpecificOutput.
type SpecificOutput interface {
	GetHookEventName() string
}

var (
	_ SpecificOutput = (*PreToolUseSpecificOutput)(nil)
	_ SpecificOutput = (*PostToolUseSpecificOutput)(nil)
	_ SpecificOutput = (*UserPromptSubmitSpecificOutput)(nil)
	_ SpecificOutput = (*PostToolUseFailureSpecificOutput)(nil)
	_ SpecificOutput = (*NotificationSpecificOutput)(nil)
	_ SpecificOutput = (*SubagentStartSpecificOutput)(nil)
	_ SpecificOutput = (*PermissionRequestSpecificOutput)(nil)
)

// PreToolUseSpecificOutput lets a PreToolUse hook rewrite the permission
// decision and/or the tool's input before it runs.
type PreToolUseSpecificOutput struct {
	HookEventName            string         `json:"hookEventName"` // "PreToolUse"
	PermissionDecision       *string        `json:"permissionDecision,omitempty"`
	PermissionDecisionReason *string        `json:"permissionDecisionReason,omitempty"`
	UpdatedInput             map[string]any `json:"updatedInput,omitempty"`
	AdditionalContext        *string        `json:"additionalContext,omitempty"`
}

func (p *PreToolUseSpecificOutput) GetHookEventName() string { return "PreToolUse" }

// ContextOnlySpecificOutput is the shape shared by every hook-specific
// output that has nothing to contribute beyond the event name and some
// free-text context to fold into the conversation.
type ContextOnlySpecificOutput struct {
	HookEventName     string  `json:"hookEventName"`
	AdditionalContext *string `json:"additionalContext,omitempty"`
}

// PostToolUseSpecificOutput additionally lets a PostToolUse hook rewrite an
// MCP tool's reported output before the CLI relays it to the model.
type PostToolUseSpecificOutput struct {
	ContextOnlySpecificOutput
	UpdatedMCPToolOutput any `json:"updatedMCPToolOutput,omitempty"` //nolint:tagliatelle // CLI protocol uses MCP acronym
}

func (p *PostToolUseSpecificOutput) GetHookEventName() string { return "PostToolUse" }

// UserPromptSubmitSpecificOutput contributes extra context ahead of the
// prompt the CLI is about to submit.
type UserPromptSubmitSpecificOutput struct {
	ContextOnlySpecificOutput
}

func (u *UserPromptSubmitSpecificOutput) GetHookEventName() string { return "UserPromptSubmit" }

// PostToolUseFailureSpecificOutput contributes extra context after a tool
// call failure.
type PostToolUseFailureSpecificOutput struct {
	ContextOnlySpecificOutput
}

func (p *PostToolUseFailureSpecificOutput) GetHookEventName() string { return "PostToolUseFailure" }

// NotificationSpecificOutput contributes extra context alongside a
// notification.
type NotificationSpecificOutput struct {
	ContextOnlySpecificOutput
}

func (n *NotificationSpecificOutput) GetHookEventName() string { return "Notification" }

// SubagentStartSpecificOutput contributes extra context when a subagent
// starts.
type SubagentStartSpecificOutput struct {
	ContextOnlySpecificOutput
}

func (s *SubagentStartSpecificOutput) GetHookEventName() string { return "SubagentStart" }

// PermissionRequestSpecificOutput lets a PermissionRequest hook supply its
// own structured decision ahead of the CanUseTool round-trip.
type PermissionRequestSpecificOutput struct {
	HookEventName string         `json:"hookEventName"` // "PermissionRequest"
	Decision      map[string]any `json:"decision,omitempty"`
}

func (p *PermissionRequestSpecificOutput) GetHookEventName() string { return "PermissionRequest" }

// Context is reserved for execution context a Callback might need beyond
// its Input and tool-use id; empty today, kept as a stable extension point
// so adding a field later doesn't change every Callback's signature.
type Context struct{}

// Callback is one registered hook implementation. It runs on a
// CallbackDispatcher goroutine (never the transport reader), and its ctx is
// cancelled if the CLI cancels the underlying control request.
type Callback func(
	ctx context.Context,
	input Input,
	toolUseID *string,
	hookCtx *Context,
) (JSONOutput, error)

// Matcher pairs a tool/event filter with the callbacks that should run when
// it matches. Matcher is not a regex: a pipe-separated string like
// "Write|Edit" means "either of these tools", and nil matches everything
// for the event it's registered under.
type Matcher struct {
	Matcher *string
	Hooks   []Callback
	Timeout *float64 // seconds (default 60)
}
