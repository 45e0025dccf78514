package claudesdk

import "github.com/claudecode/agent-sdk-go/internal/config"

// Transport is the connection a Client or Query drives — by default the
// `claude` subprocess managed by internal/subprocess.CLITransport, but
// injectable via ClaudeAgentOptions.Transport for tests or an alternative
// connection to whatever speaks the same control protocol.
type Transport = config.Transport
