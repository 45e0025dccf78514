package models

// standardCapabilities is the capability set every current Claude model
// publishes; no entry in registry below diverges from it yet, but the field
// stays per-model rather than a package-level constant so a future catalog
// entry can.
var standardCapabilities = []Capability{
	CapVision,
	CapToolUse,
	CapReasoning,
	CapStructuredOutput,
}

// registry is the fixed catalog backing ByID/All/ByCostTier. Only the
// newest model in each cost tier carries a short alias, matching what the
// CLI itself accepts on --model.
var registry = []Model{
	{
		ID:              "claude-opus-4-6",
		Name:            "Claude Opus 4.6",
		Aliases:         []string{"opus"},
		CostTier:        CostTierHigh,
		Capabilities:    standardCapabilities,
		ContextWindow:   200_000,
		MaxOutputTokens: 128_000,
	},
	{
		ID:              "claude-sonnet-4-6",
		Name:            "Claude Sonnet 4.6",
		Aliases:         []string{"sonnet"},
		CostTier:        CostTierMedium,
		Capabilities:    standardCapabilities,
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
	{
		ID:              "claude-haiku-4-5",
		Name:            "Claude Haiku 4.5",
		Aliases:         []string{"haiku"},
		CostTier:        CostTierLow,
		Capabilities:    standardCapabilities,
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
	{
		ID:              "claude-opus-4-5",
		Name:            "Claude Opus 4.5",
		CostTier:        CostTierHigh,
		Capabilities:    standardCapabilities,
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
	{
		ID:              "claude-sonnet-4-5",
		Name:            "Claude Sonnet 4.5",
		CostTier:        CostTierMedium,
		Capabilities:    standardCapabilities,
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
	{
		ID:              "claude-opus-4-1",
		Name:            "Claude Opus 4.1",
		CostTier:        CostTierHigh,
		Capabilities:    standardCapabilities,
		ContextWindow:   200_000,
		MaxOutputTokens: 32_000,
	},
	{
		ID:              "claude-opus-4-0",
		Name:            "Claude Opus 4",
		CostTier:        CostTierHigh,
		Capabilities:    standardCapabilities,
		ContextWindow:   200_000,
		MaxOutputTokens: 32_000,
	},
	{
		ID:              "claude-sonnet-4-0",
		Name:            "Claude Sonnet 4",
		CostTier:        CostTierMedium,
		Capabilities:    standardCapabilities,
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
}
