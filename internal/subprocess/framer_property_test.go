package subprocess

import (
	"encoding/json"
	"testing"

	"pgregory.net/rapid"
)

// TestJSONFramer_NeverExceedsConfiguredLimit checks the invariant that the
// framer's internal buffer is reset the instant it would exceed maxSize,
// no matter how the input is chunked across feed calls.
func TestJSONFramer_NeverExceedsConfiguredLimit(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxSize := rapid.IntRange(16, 4096).Draw(rt, "maxSize")
		framer := newJSONFramer(maxSize)

		chunkGen := rapid.StringMatching(`[a-zA-Z0-9{}":, ]{0,64}`)
		numChunks := rapid.IntRange(1, 20).Draw(rt, "numChunks")

		for i := range numChunks {
			chunk := chunkGen.Draw(rt, "chunk")

			_, _, overflow := framer.feed(chunk)
			if overflow {
				if framer.buf.Len() != 0 {
					rt.Fatalf("buffer not reset after overflow at chunk %d", i)
				}

				continue
			}

			if framer.buf.Len() > maxSize {
				rt.Fatalf("buffer grew to %d bytes without reporting overflow (limit %d)", framer.buf.Len(), maxSize)
			}
		}
	})
}

// TestJSONFramer_SplitObjectReassembles checks that an arbitrary valid JSON
// object, chopped into arbitrarily many pieces and fed one piece per call,
// is always reassembled into exactly one decoded message with matching
// content, as long as it never crosses the configured limit.
func TestJSONFramer_SplitObjectReassembles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "key")
		value := rapid.StringMatching(`[a-zA-Z0-9 ]{0,200}`).Draw(rt, "value")

		obj := map[string]any{key: value}

		encoded, err := json.Marshal(obj)
		if err != nil {
			rt.Fatal(err)
		}

		framer := newJSONFramer(len(encoded) + 1)

		numPieces := rapid.IntRange(1, min(len(encoded), 10)).Draw(rt, "numPieces")

		pieceLen := len(encoded) / numPieces
		if pieceLen == 0 {
			pieceLen = 1
		}

		var (
			decoded  map[string]any
			gotOK    bool
			overflow bool
		)

		for i := 0; i < len(encoded); i += pieceLen {
			end := min(i+pieceLen, len(encoded))

			msg, ok, ov := framer.feed(string(encoded[i:end]))
			if ov {
				overflow = true

				break
			}

			if ok {
				decoded = msg
				gotOK = true
			}
		}

		if overflow {
			return
		}

		if !gotOK {
			rt.Fatalf("split object never decoded: %s", encoded)
		}

		if decoded[key] != value {
			rt.Fatalf("decoded value mismatch: got %v, want %v", decoded[key], value)
		}
	})
}
