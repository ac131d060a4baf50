// Package cache stores computed composite scores keyed by site and metrics
// version, so a site is rescored only when its metrics change or a
// recalculation is requested.
package cache

import (
	"context"

	"github.com/okian/sitescore/internal/domain/model"
)

// Key identifies one cached score.
type Key struct {
	SiteID         string
	MetricsVersion string
}

// Cache is implemented by the memory and redis backends.
type Cache interface {
	// Get returns the cached score and whether it was present.
	Get(ctx context.Context, key Key) (model.CompositeScore, bool, error)

	// Set stores a score under key.
	Set(ctx context.Context, key Key, score model.CompositeScore) error

	// Invalidate drops every cached version of the site.
	Invalidate(ctx context.Context, siteID string) error

	// Name is the backend name used as a metrics label.
	Name() string

	Close() error
}
