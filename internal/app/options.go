package service

import (
	"github.com/okian/sitescore/internal/adapters/cache"
	"github.com/okian/sitescore/internal/adapters/metricsrepo"
	"github.com/okian/sitescore/internal/adapters/repository"
	"github.com/okian/sitescore/internal/domain/recommend"
	"github.com/okian/sitescore/internal/domain/scoring"
	"github.com/okian/sitescore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recalculation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending recalculation jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the set of sites tracked as pending.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScorer sets the scoring engine.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithRecommender sets the recommendation engine.
func WithRecommender(r *recommend.Engine) Option {
	return func(s *Service) {
		if r != nil {
			s.recommender = r
		}
	}
}

// WithFetcher sets the metrics repository used by SiteScore and Recalculate.
func WithFetcher(f metricsrepo.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithCache sets the score cache. Defaults to an in-memory cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithSnapshotStore sets where the last score per site is persisted.
func WithSnapshotStore(st repository.SnapshotStore) Option {
	return func(s *Service) {
		if st != nil {
			s.snapshots = st
		}
	}
}

// WithRanking sets the portfolio ranking. Defaults to an in-memory treap.
func WithRanking(r repository.Ranking) Option {
	return func(s *Service) {
		if r != nil {
			s.ranking = r
		}
	}
}
