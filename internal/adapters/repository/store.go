// Package repository holds the portfolio ranking and the persisted site
// score snapshots.
package repository

import (
	"context"

	"github.com/okian/sitescore/internal/domain/model"
)

// Entry represents a ranking row.
type Entry struct {
	Rank   int
	SiteID string
	Score  int
	Grade  string
}

// Ranking orders sites by overall score.
type Ranking interface {
	// Upsert sets the site's score, replacing any previous one even when it
	// is lower. Returns true if the stored score or grade changed.
	Upsert(ctx context.Context, siteID string, score int, grade string) (bool, error)

	// Rank returns the current rank and score for a site.
	// Returns ErrNotFound if the site is unknown.
	Rank(ctx context.Context, siteID string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, then site ID asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of ranked sites.
	Count(ctx context.Context) int
}

// SnapshotStore persists the last composite score computed per site.
type SnapshotStore interface {
	// Save overwrites the site's snapshot.
	Save(ctx context.Context, score model.CompositeScore) error

	// Load returns the site's snapshot or ErrNotFound.
	Load(ctx context.Context, siteID string) (model.CompositeScore, error)

	// List returns every snapshot ordered by site ID.
	List(ctx context.Context) ([]model.CompositeScore, error)

	Close() error
}
