// Package models backs the constants exposed as models.go at the module
// root (SPEC_FULL.md §4.6): named identifiers for SetModel/WithModel and
// WithFallbackModel, plus enough metadata to answer "does this model
// support vision" without the caller hardcoding a model-name string
// comparison.
package models

import (
	"slices"
	"strings"
)

// Capability is one thing a model can do beyond plain text completion.
type Capability string

const (
	CapVision           Capability = "vision"
	CapToolUse          Capability = "tool-use"
	CapReasoning        Capability = "reasoning"
	CapStructuredOutput Capability = "structured-output"
)

// CostTier buckets models by relative price, independent of the exact
// per-token rate (which changes far more often than the tier a model sits
// in).
type CostTier string

const (
	CostTierHigh   CostTier = "high"
	CostTierMedium CostTier = "medium"
	CostTierLow    CostTier = "low"
)

// Model is one catalog entry: an API identifier, the shorthand aliases the
// CLI's --model flag also accepts, and enough metadata to make a routing
// decision (fall back to a cheaper tier on rate limit, say) without a
// network round trip.
type Model struct {
	ID              string
	Name            string
	Aliases         []string
	CostTier        CostTier
	Capabilities    []Capability
	ContextWindow   int
	MaxOutputTokens int
}

// HasCapability reports whether the model supports capability.
func (m Model) HasCapability(capability Capability) bool {
	return slices.Contains(m.Capabilities, capability)
}

// CapabilityStrings renders Capabilities as plain strings, for a caller
// building a map[string]any control-request payload rather than working
// with the typed Capability values directly.
func (m Model) CapabilityStrings() []string {
	out := make([]string, 0, len(m.Capabilities))
	for _, c := range m.Capabilities {
		out = append(out, string(c))
	}

	return out
}

// All returns every catalog entry. The slice is a copy; mutating it does
// not affect the catalog.
func All() []Model {
	out := make([]Model, len(registry))
	copy(out, registry)

	return out
}

// ByID resolves a model identifier the way the CLI itself does: an exact
// ID, then an alias ("opus", "sonnet", "haiku"), then a prefix match so a
// dated snapshot id like "claude-opus-4-6-20260205" still resolves to the
// "claude-opus-4-6" entry. Returns nil if none of the three match.
func ByID(id string) *Model {
	for i := range registry {
		if registry[i].ID == id {
			m := registry[i]

			return &m
		}
	}

	for i := range registry {
		if slices.Contains(registry[i].Aliases, id) {
			m := registry[i]

			return &m
		}
	}

	for i := range registry {
		if strings.HasPrefix(id, registry[i].ID) {
			m := registry[i]

			return &m
		}
	}

	return nil
}

// ByCostTier returns every model in tier, in catalog order.
func ByCostTier(tier CostTier) []Model {
	var out []Model

	for _, m := range registry {
		if m.CostTier == tier {
			out = append(out, m)
		}
	}

	return out
}

// Capabilities looks up modelID and returns its capability strings, or nil
// if the id doesn't resolve to a catalog entry.
func Capabilities(modelID string) []string {
	m := ByID(modelID)
	if m == nil {
		return nil
	}

	return m.CapabilityStrings()
}
