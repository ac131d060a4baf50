// Package scoring turns a site's raw metrics into a composite feasibility
// score.
//
// The pipeline is deterministic and holds no mutable state:
//
//	RawMetric[] -> Normalize (per metric) -> Aggregate (per category)
//	            -> Composite (weighted) -> grading.Classify
//
// An Engine is safe for concurrent use; one engine serves every site.
package scoring

import (
	"fmt"
	"time"

	"github.com/okian/sitescore/internal/domain/grading"
	"github.com/okian/sitescore/internal/domain/model"
)

// Scorer computes composite scores for sites.
type Scorer interface {
	// ComputeScore scores a site from its metrics.
	ComputeScore(siteID string, metrics []model.RawMetric) model.CompositeScore
}

// Engine scores sites under a fixed, validated weight table.
type Engine struct {
	weights Weights
	now     func() time.Time
}

var _ Scorer = (*Engine)(nil)

// New builds an Engine. It fails with ErrConfig when the weight table
// violates its invariants; no engine is returned in that case.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights: DefaultWeights(),
		now:     time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	if err := e.weights.Validate(); err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	return e, nil
}

// Weights returns a copy of the engine's weight table.
func (e *Engine) Weights() Weights {
	out := make(Weights, len(e.weights))
	copy(out, e.weights)
	return out
}

// ComputeScore scores a site. It never fails: unusable metric values are
// scored neutral and reported in Warnings, and a site with no metrics
// scores neutral with LowConfidence set.
func (e *Engine) ComputeScore(siteID string, metrics []model.RawMetric) model.CompositeScore {
	categories, warnings := e.categorize(metrics)

	byKey := make(map[string]model.CategoryScore, len(categories))
	for _, cs := range categories {
		byKey[cs.Key] = cs
	}
	overall := Composite(byKey, e.weights)
	class := grading.Classify(float64(overall))

	return model.CompositeScore{
		SiteID:         siteID,
		OverallScore:   overall,
		Grade:          string(class.Grade),
		Label:          class.Label,
		ColorToken:     class.ColorToken,
		ComputedAt:     e.now().UTC(),
		MetricsVersion: Fingerprint(metrics),
		LowConfidence:  len(metrics) == 0,
		Categories:     categories,
		Warnings:       warnings,
	}
}

// Categories scores every category of the weight table.
func (e *Engine) Categories(metrics []model.RawMetric) map[string]model.CategoryScore {
	categories, _ := e.categorize(metrics)
	out := make(map[string]model.CategoryScore, len(categories))
	for _, cs := range categories {
		out[cs.Key] = cs
	}
	return out
}

// categorize normalizes each metric once, then aggregates per category in
// weight-table order.
func (e *Engine) categorize(metrics []model.RawMetric) ([]model.CategoryScore, []model.DataQualityWarning) {
	normalized := make([]float64, len(metrics))
	var warnings []model.DataQualityWarning
	for i, m := range metrics {
		score, w := Normalize(m)
		normalized[i] = score
		if w != nil {
			warnings = append(warnings, *w)
		}
	}

	categories := make([]model.CategoryScore, len(e.weights))
	for i, cw := range e.weights {
		categories[i] = aggregateNormalized(cw.Key, metrics, normalized)
	}
	return categories, warnings
}
