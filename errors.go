package claudesdk

import "github.com/claudecode/agent-sdk-go/internal/errors"

// ClaudeSDKError is implemented by every typed error this package can
// return; a caller not interested in the specific cause can still check
// errors.As against this interface.
type ClaudeSDKError = errors.ClaudeSDKError

// CLINotFoundError means no `claude` binary was found on any of the
// searched paths; see its SearchedPaths field for what was tried.
type CLINotFoundError = errors.CLINotFoundError

// CLIConnectionError means the SDK could not bring up the CLI subprocess:
// the process or its pipes failed to start, or it did not complete the
// initial handshake.
type CLIConnectionError = errors.CLIConnectionError

// ProcessError means the CLI subprocess exited abnormally; its ExitCode
// and Stderr fields carry what the process reported on its way out.
type ProcessError = errors.ProcessError

// MessageParseError means a line the CLI wrote to stdout didn't decode
// into any known conversation message shape.
type MessageParseError = errors.MessageParseError

// CLIJSONDecodeError means a line of CLI output wasn't valid JSON at all.
type CLIJSONDecodeError = errors.CLIJSONDecodeError

// Sentinel errors for the common lifecycle and control-plane failures,
// suitable for errors.Is comparisons.
var (
	ErrClientNotConnected     = errors.ErrClientNotConnected
	ErrClientAlreadyConnected = errors.ErrClientAlreadyConnected
	ErrClientClosed           = errors.ErrClientClosed
	ErrTransportNotConnected  = errors.ErrTransportNotConnected
	ErrRequestTimeout         = errors.ErrRequestTimeout
)
