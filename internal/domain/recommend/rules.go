package recommend

import (
	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/scoring"
)

// Inputs is the view of a scored site that rules evaluate.
type Inputs struct {
	Overall       float64
	Categories    map[string]float64
	LowConfidence bool
}

// category returns a category score, neutral when absent.
func (in Inputs) category(key string) float64 {
	if v, ok := in.Categories[key]; ok {
		return v
	}
	return scoring.NeutralScore
}

// Rule fires a recommendation when its condition holds.
type Rule struct {
	Name     string
	Tier     model.Tier
	Text     string
	Category string
	When     func(Inputs) bool
}

func (r Rule) recommendation() model.Recommendation {
	return model.Recommendation{Tier: r.Tier, Text: r.Text, Category: r.Category}
}

func categoryBelow(key string, threshold float64) func(Inputs) bool {
	return func(in Inputs) bool { return in.category(key) < threshold }
}

func overallAtLeast(threshold float64) func(Inputs) bool {
	return func(in Inputs) bool { return in.Overall >= threshold }
}

// builtinRules is evaluated in order; output keeps this order within a tier.
var builtinRules = []Rule{
	{
		Name: "demographics-validation", Tier: model.TierHigh, Category: scoring.CategoryDemographics,
		Text: "Validate target market demographics with a primary market study",
		When: categoryBelow(scoring.CategoryDemographics, 55),
	},
	{
		Name: "risk-review", Tier: model.TierHigh, Category: scoring.CategoryRisk,
		Text: "Commission environmental and regulatory review before acquisition",
		When: categoryBelow(scoring.CategoryRisk, 50),
	},
	{
		Name: "financial-stress-test", Tier: model.TierHigh, Category: scoring.CategoryFinancial,
		Text: "Stress-test the financing structure and capital stack",
		When: categoryBelow(scoring.CategoryFinancial, 50),
	},
	{
		Name: "location-access", Tier: model.TierMedium, Category: scoring.CategoryLocation,
		Text: "Assess access, visibility and infrastructure improvements",
		When: categoryBelow(scoring.CategoryLocation, 55),
	},
	{
		Name: "market-assumptions", Tier: model.TierMedium, Category: scoring.CategoryMarket,
		Text: "Refine absorption and pricing assumptions with comparable sales",
		When: categoryBelow(scoring.CategoryMarket, 55),
	},
	{
		Name: "entitlement-review", Tier: model.TierMedium, Category: scoring.CategoryDevelopment,
		Text: "Review zoning, entitlement path and site constraints",
		When: categoryBelow(scoring.CategoryDevelopment, 50),
	},
	{
		Name: "fast-track", Tier: model.TierFuture,
		Text: "Fast-track acquisition and secure the site",
		When: overallAtLeast(85),
	},
	{
		Name: "phased-plan", Tier: model.TierFuture,
		Text: "Prepare a phased development plan",
		When: overallAtLeast(70),
	},
}

// baseline is returned when no rule fires: one item per tier.
var baseline = []model.Recommendation{
	{Tier: model.TierHigh, Text: "Confirm site control and title status"},
	{Tier: model.TierMedium, Text: "Monitor category metrics for material changes"},
	{Tier: model.TierFuture, Text: "Re-score the site when new market data is published"},
}
