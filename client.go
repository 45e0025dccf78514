package claudesdk

import (
	"context"
	"iter"
)

// Client is the stateful, multi-turn counterpart to Query: it keeps one
// `claude` subprocess alive across an arbitrary number of exchanges and
// gives the caller a control channel into that running conversation —
// interrupts, mid-session permission-mode or model changes, and MCP status
// checks — none of which a one-shot Query invocation has anywhere to send.
//
// A Client is single-use: once Close returns, start a new one with
// NewClient rather than trying to restart the old value.
//
//	client := claudesdk.NewClient()
//	defer client.Close()
//
//	if err := client.Start(ctx, claudesdk.WithPermissionMode("acceptEdits")); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.Query(ctx, "What is 2+2?"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for msg, err := range client.ReceiveResponse(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // handle msg
//	}
type Client interface {
	// Start launches the CLI and brings up the control connection. Every
	// other method requires a successful Start first. Returns
	// CLINotFoundError if the binary can't be located, CLIConnectionError
	// if the subprocess can't be launched or the handshake fails. Calling Start again
	// on an already-connected client is a no-op: it returns nil without
	// restarting anything.
	Start(ctx context.Context, opts ...Option) error

	// StartWithPrompt is Start immediately followed by Query(ctx, prompt)
	// against the "default" session, as a convenience for the common case
	// of a client whose first action is always the same prompt.
	StartWithPrompt(ctx context.Context, prompt string, opts ...Option) error

	// StartWithStream starts the client and feeds it prompts pulled from
	// messages instead of a single string, for a caller that wants to queue
	// several turns up front. The iterator runs on its own goroutine; EndInput
	// fires automatically once it's exhausted, and cancelling ctx aborts it.
	// Like Start, calling it again on an already-connected client is a no-op.
	StartWithStream(ctx context.Context, messages iter.Seq[StreamingMessage], opts ...Option) error

	// Query submits a prompt and returns without waiting for a reply — use
	// ReceiveMessages or ReceiveResponse to consume what comes back.
	// sessionID defaults to "default", letting one Client multiplex several
	// independent conversations when the CLI supports it.
	Query(ctx context.Context, prompt string, sessionID ...string) error

	// ReceiveMessages streams every conversation message as it arrives,
	// with no stopping point of its own — it runs until EOF, an error, or
	// ctx cancellation. Use ReceiveResponse instead when you only care
	// about one turn's worth of output.
	ReceiveMessages(ctx context.Context) iter.Seq2[Message, error]

	// ReceiveResponse streams messages for the current turn only, stopping
	// (inclusively) at the ResultMessage that closes it out.
	ReceiveResponse(ctx context.Context) iter.Seq2[Message, error]

	// Interrupt asks the CLI to stop whatever it's currently doing.
	Interrupt(ctx context.Context) error

	// SetPermissionMode switches the session's permission posture
	// mid-conversation. Valid values: "default", "acceptEdits", "plan",
	// "bypassPermissions".
	SetPermissionMode(ctx context.Context, mode string) error

	// SetModel switches the model mid-conversation; nil reverts to the
	// CLI's own default.
	SetModel(ctx context.Context, model *string) error

	// GetServerInfo returns whatever the CLI reported about itself at
	// connect time (available commands, etc), or nil if that information
	// was never received — e.g. the client isn't connected, or the CLI's
	// init announcement hasn't arrived yet.
	GetServerInfo() map[string]any

	// GetMCPStatus asks the CLI for the live connection status of every
	// configured MCP server.
	GetMCPStatus(ctx context.Context) (*MCPStatus, error)

	// RewindFiles reverts tracked file edits back to their state as of a
	// prior user message, identified by userMessageID. Requires
	// EnableFileCheckpointing to have been set at Start.
	RewindFiles(ctx context.Context, userMessageID string) error

	// Close ends the session and releases the underlying subprocess and
	// its resources. Safe to call more than once; the client cannot be
	// reused afterward.
	Close() error
}

// NewClient constructs an unstarted Client. Call Start (or StartWithPrompt
// / StartWithStream) before using it.
func NewClient() Client {
	return newClientImpl()
}
