package claudesdk

import (
	"context"
	"iter"

	"github.com/claudecode/agent-sdk-go/internal/client"
	"github.com/claudecode/agent-sdk-go/internal/config"
	"github.com/claudecode/agent-sdk-go/internal/message"
)

// clientWrapper is the thin adapter between the public Client interface and
// internal/client.Client, which speaks in terms of the internal message and
// config packages rather than this package's public aliases for them.
type clientWrapper struct {
	impl *client.Client
}

var _ Client = (*clientWrapper)(nil)

func newClientImpl() Client {
	return &clientWrapper{impl: client.New()}
}

func (c *clientWrapper) Start(ctx context.Context, opts ...Option) error {
	return c.impl.Start(ctx, applyAgentOptionsToConfig(opts))
}

func (c *clientWrapper) StartWithPrompt(ctx context.Context, prompt string, opts ...Option) error {
	return c.impl.StartWithPrompt(ctx, prompt, applyAgentOptionsToConfig(opts))
}

func (c *clientWrapper) StartWithStream(
	ctx context.Context,
	messages iter.Seq[StreamingMessage],
	opts ...Option,
) error {
	// StreamingMessage is a type alias for message.StreamingMessage, so this
	// re-yield only changes the iterator's declared element type, not the
	// underlying values.
	internalMessages := func(yield func(message.StreamingMessage) bool) {
		for msg := range messages {
			if !yield(msg) {
				return
			}
		}
	}

	return c.impl.StartWithStream(ctx, internalMessages, applyAgentOptionsToConfig(opts))
}

func (c *clientWrapper) Query(ctx context.Context, prompt string, sessionID ...string) error {
	return c.impl.Query(ctx, prompt, sessionID...)
}

func (c *clientWrapper) ReceiveMessages(ctx context.Context) iter.Seq2[Message, error] {
	return c.impl.ReceiveMessages(ctx)
}

func (c *clientWrapper) ReceiveResponse(ctx context.Context) iter.Seq2[Message, error] {
	return c.impl.ReceiveResponse(ctx)
}

func (c *clientWrapper) Interrupt(ctx context.Context) error {
	return c.impl.Interrupt(ctx)
}

func (c *clientWrapper) SetPermissionMode(ctx context.Context, mode string) error {
	return c.impl.SetPermissionMode(ctx, mode)
}

func (c *clientWrapper) SetModel(ctx context.Context, model *string) error {
	return c.impl.SetModel(ctx, model)
}

func (c *clientWrapper) GetServerInfo() map[string]any {
	return c.impl.GetServerInfo()
}

func (c *clientWrapper) GetMCPStatus(ctx context.Context) (*MCPStatus, error) {
	return c.impl.GetMCPStatus(ctx)
}

func (c *clientWrapper) RewindFiles(ctx context.Context, userMessageID string) error {
	return c.impl.RewindFiles(ctx, userMessageID)
}

func (c *clientWrapper) Close() error {
	return c.impl.Close()
}

// applyAgentOptionsToConfig folds a caller's Option list down into the
// internal config.Options the client package works with. ClaudeAgentOptions
// is itself a type alias for config.Options, so this is a straight pass
// once applyAgentOptions has resolved the functional options.
func applyAgentOptionsToConfig(opts []Option) *config.Options {
	options := applyAgentOptions(opts)
	if options == nil {
		return nil
	}

	return options
}
