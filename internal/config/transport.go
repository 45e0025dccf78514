// Package config holds the configuration and transport types shared across
// the SDK's internal packages, kept separate from the root package so
// internal/client, internal/protocol, and internal/subprocess can all
// depend on it without an import cycle back to the public API.
package config

import "context"

// Transport is the connection this SDK drives: something that can hand the
// Controller a stream of decoded JSON objects and accept encoded ones back.
// CLITransport (internal/subprocess) is the only production implementation
// — it manages the `claude` subprocess itself — but the interface exists so
// tests, and any future non-subprocess connection, can stand in for it.
type Transport interface {
	// Start brings the transport up. Nothing else on this interface is
	// valid to call before Start returns.
	Start(ctx context.Context) error

	// ReadMessages streams decoded JSON objects from the connection on one
	// channel and any terminal read error on the other. Both channels close
	// once reading stops, whether cleanly or due to an error.
	ReadMessages(ctx context.Context) (<-chan map[string]any, <-chan error)

	// SendMessage writes one complete JSON message to the connection.
	// Concurrent calls must not corrupt each other's output.
	SendMessage(ctx context.Context, data []byte) error

	// Close tears the transport down. Safe to call more than once.
	Close() error

	// IsReady reports whether the transport can currently accept
	// SendMessage calls.
	IsReady() bool

	// EndInput signals that no further SendMessage calls are coming, e.g.
	// by closing the subprocess's stdin, so the CLI can notice end-of-input
	// on a one-shot query.
	EndInput() error
}
