package protocol

// envelopeKind classifies a decoded stdout line by where it should be
// delivered: a conversation message goes to the caller, a control_response
// resolves an entry in PendingRequests, and a control_request or
// control_cancel_request goes to the CallbackDispatcher.
type envelopeKind int

const (
	envelopeConversation envelopeKind = iota
	envelopeControlResponse
	envelopeControlRequest
	envelopeCancelRequest
)

// classify inspects msg's "type" field to route it. Any type other than the
// three control-plane ones is treated as an ordinary conversation message —
// the CLI's message vocabulary can grow without this switch needing to
// track every case, since a new message type falls through to the
// conversation channel by default rather than being silently dropped.
func classify(msg map[string]any) envelopeKind {
	t, _ := msg["type"].(string)

	switch t {
	case "control_response":
		return envelopeControlResponse
	case "control_request":
		return envelopeControlRequest
	case "control_cancel_request":
		return envelopeCancelRequest
	default:
		return envelopeConversation
	}
}
