// Package errors defines error types for the Claude SDK.
//
// This package provides structured error types that wrap different failure
// scenarios when interacting with the Claude CLI. All error types support
// error unwrapping and can be checked using errors.Is, errors.As, and errors.AsType.
package errors
