package claudesdk

import "github.com/claudecode/agent-sdk-go/internal/models"

// Model, ModelCapability, and ModelCostTier re-export the catalog types
// backing WithModel/WithFallbackModel (SPEC_FULL.md §4.6) so a caller
// building tooling around model metadata doesn't need to import
// internal/models directly.
type (
	Model           = models.Model
	ModelCapability = models.Capability
	ModelCostTier   = models.CostTier
)

const (
	ModelCapVision           = models.CapVision
	ModelCapToolUse          = models.CapToolUse
	ModelCapReasoning        = models.CapReasoning
	ModelCapStructuredOutput = models.CapStructuredOutput
)

const (
	ModelCostTierHigh   = models.CostTierHigh
	ModelCostTierMedium = models.CostTierMedium
	ModelCostTierLow    = models.CostTierLow
)

// Models returns every catalog entry.
func Models() []Model {
	return models.All()
}

// ModelByID resolves id against the catalog by exact id, alias, or dated
// prefix, returning nil if none match.
func ModelByID(id string) *Model {
	return models.ByID(id)
}

// ModelsByCostTier returns every catalog entry in tier.
func ModelsByCostTier(tier ModelCostTier) []Model {
	return models.ByCostTier(tier)
}

// ModelCapabilities returns modelID's capability strings, or nil if it
// doesn't resolve to a catalog entry.
func ModelCapabilities(modelID string) []string {
	return models.Capabilities(modelID)
}
