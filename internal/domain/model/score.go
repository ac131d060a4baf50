package model

import "time"

// CategoryScore is the aggregated 0-100 score of one metric category.
type CategoryScore struct {
	Key   string  `json:"key" yaml:"key"`
	Score float64 `json:"score" yaml:"score"`
}

// CompositeScore is the scored result for a site. It is derived data:
// recomputed on every invocation and only snapshotted by callers.
type CompositeScore struct {
	SiteID         string               `json:"siteId" yaml:"siteId"`
	OverallScore   int                  `json:"overallScore" yaml:"overallScore"`
	Grade          string               `json:"grade" yaml:"grade"`
	Label          string               `json:"label" yaml:"label"`
	ColorToken     string               `json:"colorToken" yaml:"colorToken"`
	ComputedAt     time.Time            `json:"computedAt" yaml:"computedAt"`
	MetricsVersion string               `json:"metricsVersion" yaml:"metricsVersion"`
	LowConfidence  bool                 `json:"lowConfidence" yaml:"lowConfidence"`
	Categories     []CategoryScore      `json:"categories" yaml:"categories"`
	Warnings       []DataQualityWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// CategoryMap indexes the category scores by key.
func (c CompositeScore) CategoryMap() map[string]CategoryScore {
	out := make(map[string]CategoryScore, len(c.Categories))
	for _, cs := range c.Categories {
		out[cs.Key] = cs
	}
	return out
}

// Tier is the priority bucket of a recommendation.
type Tier string

// Recommendation tiers in priority order.
const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierFuture Tier = "Future"
)

// Rank orders tiers: High first, unknown tiers last.
func (t Tier) Rank() int {
	switch t {
	case TierHigh:
		return 0
	case TierMedium:
		return 1
	case TierFuture:
		return 2
	default:
		return 3
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t.Rank() < 3
}

// Recommendation is a single prioritized action item.
type Recommendation struct {
	Tier     Tier   `json:"tier" yaml:"tier"`
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}
