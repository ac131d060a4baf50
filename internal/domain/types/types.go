// Package types contains common types used across the application
package types

import "github.com/okian/sitescore/internal/domain/model"

// Entry represents a portfolio ranking row
type Entry struct {
	Rank   int    `json:"rank"`
	SiteID string `json:"site_id"`
	Score  int    `json:"score"`
	Grade  string `json:"grade"`
}

// ScoreReport bundles a site's composite score with its recommendations.
type ScoreReport struct {
	Score           model.CompositeScore   `json:"score" yaml:"score"`
	Recommendations []model.Recommendation `json:"recommendations" yaml:"recommendations"`
	Cached          bool                   `json:"cached" yaml:"cached"`
}
