//go:build integration

package integration

import (
	"errors"
	"testing"

	claudesdk "github.com/claudecode/agent-sdk-go"
)

// skipIfCLINotInstalled skips the test if the error indicates the CLI is not found.
func skipIfCLINotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*claudesdk.CLINotFoundError](err); ok {
		t.Skip("Claude CLI not installed")
	}
}
