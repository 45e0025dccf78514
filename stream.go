package claudesdk

import "iter"

// MessagesFromSlice turns a fixed batch of StreamingMessage values into the
// iterator StartWithStream expects.
func MessagesFromSlice(msgs []StreamingMessage) iter.Seq[StreamingMessage] {
	return func(yield func(StreamingMessage) bool) {
		for _, msg := range msgs {
			if !yield(msg) {
				return
			}
		}
	}
}

// MessagesFromChannel adapts a channel of StreamingMessage values into the
// iterator StartWithStream expects, completing when ch is closed — useful
// when messages are produced over time rather than known up front.
func MessagesFromChannel(ch <-chan StreamingMessage) iter.Seq[StreamingMessage] {
	return func(yield func(StreamingMessage) bool) {
		for msg := range ch {
			if !yield(msg) {
				return
			}
		}
	}
}

// SingleMessage wraps one string prompt as a one-element stream, for a
// StartWithStream call that only ever sends a single turn.
func SingleMessage(content string) iter.Seq[StreamingMessage] {
	return MessagesFromSlice([]StreamingMessage{NewUserMessage(content)})
}

// NewUserMessage builds the StreamingMessage wire shape for a plain-text
// user turn.
func NewUserMessage(content string) StreamingMessage {
	return StreamingMessage{
		Type: "user",
		Message: StreamingMessageContent{
			Role:    "user",
			Content: content,
		},
	}
}
