// Package message defines the conversation-message vocabulary decoded from
// the CLI's stdout stream — everything ControlRouter classifies as
// "conversation" rather than control-plane traffic (spec.md §4.3.1).
package message

import "encoding/json"

// Message is implemented by every decoded conversation message type. A
// caller type-switches on the concrete value; MessageType exists mainly so
// generic logging/debugging code has something to print without doing that
// switch itself.
type Message interface {
	MessageType() string
}

var (
	_ Message = (*UserMessage)(nil)
	_ Message = (*AssistantMessage)(nil)
	_ Message = (*SystemMessage)(nil)
	_ Message = (*ResultMessage)(nil)
	_ Message = (*StreamEvent)(nil)
)

// UserMessageContent is a "string or array" field: the CLI accepts a plain
// string for simple prompts but reports (and expects, for a message with
// tool results attached) an array of ContentBlock. This type wraps the
// ambiguity so callers see a normalized []ContentBlock regardless of which
// shape was on the wire.
type UserMessageContent struct {
	text   *string
	blocks []ContentBlock
}

// NewUserMessageContent wraps a plain-string message body.
func NewUserMessageContent(text string) UserMessageContent {
	return UserMessageContent{text: &text}
}

// NewUserMessageContentBlocks wraps a message body already split into
// content blocks.
func NewUserMessageContentBlocks(blocks []ContentBlock) UserMessageContent {
	return UserMessageContent{blocks: blocks}
}

// String returns the original string body, or "" if this content was built
// from blocks instead.
func (c *UserMessageContent) String() string {
	if c.text != nil {
		return *c.text
	}

	return ""
}

// Blocks returns the content as blocks regardless of which constructor
// built it, wrapping a plain string in a single TextBlock.
func (c *UserMessageContent) Blocks() []ContentBlock {
	if c.blocks != nil {
		return c.blocks
	}

	if c.text != nil {
		return []ContentBlock{&TextBlock{Type: "text", Text: *c.text}}
	}

	return nil
}

// IsString reports whether this content was built from a plain string.
func (c *UserMessageContent) IsString() bool {
	return c.text != nil
}

// MarshalJSON emits a bare string when the content was built that way, and
// an array of blocks otherwise — round-tripping whichever shape the CLI
// would have sent.
func (c UserMessageContent) MarshalJSON() ([]byte, error) {
	if c.text != nil {
		return json.Marshal(*c.text)
	}

	return json.Marshal(c.blocks)
}

// UnmarshalJSON accepts either wire shape, trying a bare string first and
// falling back to an array of content blocks decoded via
// UnmarshalContentBlock.
func (c *UserMessageContent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.text = &text
		c.blocks = nil

		return nil
	}

	var rawBlocks []json.RawMessage
	if err := json.Unmarshal(data, &rawBlocks); err != nil {
		return err
	}

	blocks := make([]ContentBlock, 0, len(rawBlocks))

	for _, raw := range rawBlocks {
		block, err := UnmarshalContentBlock(raw)
		if err != nil {
			return err
		}

		blocks = append(blocks, block)
	}

	c.blocks = blocks
	c.text = nil

	return nil
}

// UserMessage is a turn attributed to the caller — either the original
// prompt or a tool_result fed back in after a tool call.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type UserMessage struct {
	Type            string             `json:"type"`
	Content         UserMessageContent `json:"content"`
	UUID            *string            `json:"uuid,omitempty"`
	ParentToolUseID *string            `json:"parent_tool_use_id,omitempty"`
	ToolUseResult   map[string]any     `json:"tool_use_result,omitempty"`
}

func (m *UserMessage) MessageType() string { return "user" }

// AssistantMessage is one turn of model output: zero or more content
// blocks (text, tool use, thinking, …), the model that produced them, and
// an optional Error if the turn ended abnormally instead of completing.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type AssistantMessage struct {
	Type            string                 `json:"type"`
	Content         []ContentBlock         `json:"content"`
	Model           string                 `json:"model"`
	ParentToolUseID *string                `json:"parent_tool_use_id,omitempty"`
	Error           *AssistantMessageError `json:"error,omitempty"`
}

func (m *AssistantMessage) MessageType() string { return "assistant" }

// AssistantMessageError classifies why an assistant turn ended without a
// normal completion.
type AssistantMessageError string

const (
	AssistantMessageErrorAuthFailed AssistantMessageError = "authentication_failed"
	AssistantMessageErrorBilling    AssistantMessageError = "billing_error"
	AssistantMessageErrorRateLimit  AssistantMessageError = "rate_limit"
	AssistantMessageErrorInvalidReq AssistantMessageError = "invalid_request"
	AssistantMessageErrorServer     AssistantMessageError = "server_error"
	AssistantMessageErrorUnknown    AssistantMessageError = "unknown"
)

// SystemMessage carries out-of-band CLI status — init announcements,
// compaction notices, and similar — keyed by Subtype with a free-form Data
// payload.
type SystemMessage struct {
	Type    string         `json:"type"`
	Subtype string         `json:"subtype,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func (m *SystemMessage) MessageType() string { return "system" }

// ResultMessage closes out a query: it's the last message delivered before
// the conversation channel goes idle for that turn, carrying timing, cost,
// and (if the caller asked for one via an output schema) StructuredOutput.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type ResultMessage struct {
	Type             string   `json:"type"`
	Subtype          string   `json:"subtype"`
	DurationMs       int      `json:"duration_ms"`
	DurationAPIMs    int      `json:"duration_api_ms"`
	IsError          bool     `json:"is_error"`
	NumTurns         int      `json:"num_turns"`
	SessionID        string   `json:"session_id"`
	TotalCostUSD     *float64 `json:"total_cost_usd,omitempty"`
	Usage            *Usage   `json:"usage,omitempty"`
	Result           *string  `json:"result,omitempty"`
	StructuredOutput any      `json:"structured_output,omitempty"`
}

func (m *ResultMessage) MessageType() string { return "result" }

// StreamEvent is a raw partial-message event from the underlying Anthropic
// API, passed through unparsed under Event for a caller that opted into
// partial-message streaming rather than whole assistant turns.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type StreamEvent struct {
	UUID            string         `json:"uuid"`
	SessionID       string         `json:"session_id"`
	Event           map[string]any `json:"event"`
	ParentToolUseID *string        `json:"parent_tool_use_id,omitempty"`
}

func (m *StreamEvent) MessageType() string { return "stream_event" }

// Usage reports token counts for one assistant turn.
//
//nolint:tagliatelle // Claude CLI uses snake_case
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// StreamingMessageContent is the body of a StreamingMessage sent to the
// CLI's stdin while it's running with --input-format stream-json.
type StreamingMessageContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamingMessage is an inbound turn the SDK writes to the CLI's stdin in
// streaming-input mode, as opposed to the single prompt passed on the
// command line for a one-shot query.
//
//nolint:tagliatelle // CLI protocol uses snake_case for JSON fields
type StreamingMessage struct {
	Type            string                  `json:"type"`
	Message         StreamingMessageContent `json:"message"`
	ParentToolUseID *string                 `json:"parent_tool_use_id,omitempty"`
	SessionID       string                  `json:"session_id,omitempty"`
}
