package protocol

import (
	"context"
)

// ControlRequest is one envelope of the bidirectional control channel
// multiplexed over the same stdout/stdin stream as conversation messages
// (spec.md §4.3). Both directions use the same shape: the SDK sends these
// to ask the CLI to do something (interrupt, set_model, rewind_files, …),
// and the CLI sends these back to ask the SDK to decide something (a hook
// firing, a tool permission check, an MCP passthrough call).
//
//	{
//	  "type": "control_request",
//	  "request_id": "<opaque, process-scoped-unique>",
//	  "request": { "subtype": "...", ...subtype-specific fields }
//	}
type ControlRequest struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id"` //nolint:tagliatelle // Claude CLI uses snake_case
	Request   map[string]any `json:"request"`
}

// Subtype reports the request's nested subtype discriminator, or "" if the
// CLI sent a request without one (which RegisterHandler's caller then finds
// no handler for, rather than this method failing outright).
func (r *ControlRequest) Subtype() string {
	s, _ := r.Request["subtype"].(string)

	return s
}

// ControlResponse answers a ControlRequest, correlated by request_id. Two
// wire shapes share this struct: a success response nests its payload under
// "response", an error response carries a plain string under "error"
// instead. IsError distinguishes the two without the caller needing to know
// the field names.
//
//	{"type": "control_response", "response": {"subtype": "success", "request_id": "...", "response": {...}}}
//	{"type": "control_response", "response": {"subtype": "error",   "request_id": "...", "error": "..."}}
type ControlResponse struct {
	Type     string         `json:"type"`
	Response map[string]any `json:"response"`
}

// IsError reports whether this response's nested subtype is "error".
func (r *ControlResponse) IsError() bool {
	subtype, _ := r.Response["subtype"].(string)

	return subtype == "error"
}

// ErrorMessage returns the CLI-supplied error text, or "" for a success
// response or a malformed error response missing the field.
func (r *ControlResponse) ErrorMessage() string {
	msg, _ := r.Response["error"].(string)

	return msg
}

// Payload returns the success response's nested payload map, or nil if this
// is an error response or the field is absent/malformed.
func (r *ControlResponse) Payload() map[string]any {
	payload, _ := r.Response["response"].(map[string]any)

	return payload
}

// RequestID returns the request_id this response is answering.
func (r *ControlResponse) RequestID() string {
	id, _ := r.Response["request_id"].(string)

	return id
}

// RequestHandler answers one inbound control_request. It runs on a
// CallbackDispatcher goroutine, never on the transport's reader goroutine
// (spec.md §4.3.3), so it is free to block — on a human permission
// decision, say — without stalling delivery of unrelated messages. Its
// context is cancelled if the CLI sends a matching control_cancel_request
// before the handler returns.
type RequestHandler func(ctx context.Context, req *ControlRequest) (map[string]any, error)
