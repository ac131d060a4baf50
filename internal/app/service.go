// Package service provides the application service that implements the
// dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sitescore/internal/adapters/cache"
	"github.com/okian/sitescore/internal/adapters/metricsrepo"
	jobqueue "github.com/okian/sitescore/internal/adapters/mq/queue"
	"github.com/okian/sitescore/internal/adapters/mq/worker"
	"github.com/okian/sitescore/internal/adapters/repository"
	"github.com/okian/sitescore/internal/domain/dedupe"
	"github.com/okian/sitescore/internal/domain/grading"
	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/recommend"
	"github.com/okian/sitescore/internal/domain/scoring"
	"github.com/okian/sitescore/internal/domain/types"
	"github.com/okian/sitescore/pkg/logger"
	"github.com/okian/sitescore/pkg/metrics"
)

// BatchResult reports what a batch recalculation request queued.
type BatchResult struct {
	JobID      string   `json:"jobId"`
	Accepted   []string `json:"accepted"`
	Duplicates []string `json:"duplicates"`
}

// recalcAdapter adapts Service.Recalculate to worker.Recalculator.
type recalcAdapter struct {
	svc *Service
}

func (a recalcAdapter) Recalculate(ctx context.Context, siteID string) (model.CompositeScore, error) {
	report, err := a.svc.Recalculate(ctx, siteID)
	if err != nil {
		return model.CompositeScore{}, err
	}
	return report.Score, nil
}

// Service scores sites and keeps the derived state (cache, snapshots and
// ranking) in step with the latest computation.
type Service struct {
	mu sync.RWMutex

	// Scoring
	scorer      scoring.Scorer
	recommender *recommend.Engine

	// Adapters
	fetcher   metricsrepo.Fetcher
	cache     cache.Cache
	snapshots repository.SnapshotStore
	ranking   repository.Ranking

	// Batch recalculation
	deduper       dedupe.Deduper
	queue         jobqueue.Queue
	pool          *worker.Pool
	cancelWorkers context.CancelFunc

	// Stores are ordered per site by a ticket taken before the fetch, so a
	// slow fetch of older metrics never overwrites a newer result.
	storeMu   sync.Mutex
	tickets   atomic.Uint64
	committed map[string]uint64

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int

	// State
	started bool

	// Counters reported by GetStats
	scored     atomic.Int64
	cacheHits  atomic.Int64
	recomputed atomic.Int64

	logger logger.Logger
}

// New constructs a Service. The default scoring and recommendation engines
// are built here; a configuration error in either is returned.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  100_000,
		committed:   make(map[string]uint64),
		logger:      logger.GetOrNop().Named("service"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.scorer == nil {
		engine, err := scoring.New()
		if err != nil {
			return nil, err
		}
		s.scorer = engine
	}
	if s.recommender == nil {
		engine, err := recommend.New()
		if err != nil {
			return nil, err
		}
		s.recommender = engine
	}
	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	if s.snapshots == nil {
		s.snapshots = repository.NopSnapshotStore{}
	}
	if s.ranking == nil {
		s.ranking = repository.NewTreapStore()
	}
	return s, nil
}

// Start restores the ranking from persisted snapshots and starts the
// recalculation workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting site scoring service...")

	restored, err := s.restoreRanking(ctx)
	if err != nil {
		return fmt.Errorf("restore ranking: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, recalcAdapter{svc: s},
		worker.WithReleaser(s.deduper),
		worker.WithLogger(s.logger.Named("worker")),
	)
	// Workers outlive ctx so Stop can drain the queue after a shutdown signal.
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelWorkers = cancel
	s.pool.Start(workerCtx)

	s.started = true
	s.logger.Info(ctx, "site scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("restoredSites", restored),
		logger.String("cache", s.cache.Name()),
		logger.Bool("metricsRepo", s.fetcher != nil),
	)
	return nil
}

func (s *Service) restoreRanking(ctx context.Context) (int, error) {
	snaps, err := s.snapshots.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, snap := range snaps {
		if _, err := s.ranking.Upsert(ctx, snap.SiteID, snap.OverallScore, snap.Grade); err != nil {
			return 0, err
		}
	}
	return len(snaps), nil
}

// Stop drains the recalculation queue and closes the adapters.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping site scoring service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancelWorkers()
	if err := s.cache.Close(); err != nil {
		s.logger.Warn(ctx, "closing cache", logger.Error(err))
	}
	if err := s.snapshots.Close(); err != nil {
		s.logger.Warn(ctx, "closing snapshot store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "site scoring service stopped")
}

// Score computes a report for caller-supplied metrics. Nothing is stored.
func (s *Service) Score(ctx context.Context, siteID string, metricsIn []model.RawMetric) (types.ScoreReport, error) {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return types.ScoreReport{}, fmt.Errorf("%w: siteId is required", ErrInvalidInput)
	}
	score := s.compute(ctx, siteID, metricsIn)
	return s.report(score, false), nil
}

// SiteScore returns the site's score for its current metrics, computing and
// storing it on a cache miss.
func (s *Service) SiteScore(ctx context.Context, siteID string) (types.ScoreReport, error) {
	ticket := s.tickets.Add(1)
	snap, err := s.fetch(ctx, siteID)
	if err != nil {
		return types.ScoreReport{}, err
	}

	key := cache.Key{SiteID: siteID, MetricsVersion: snap.Version}
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "score cache read failed", logger.String("site_id", siteID), logger.Error(err))
	}
	if ok {
		s.cacheHits.Add(1)
		return s.report(cached, true), nil
	}

	score := s.compute(ctx, siteID, snap.Metrics)
	score.MetricsVersion = snap.Version
	if err := s.store(ctx, ticket, key, score); err != nil {
		return types.ScoreReport{}, err
	}
	return s.report(score, false), nil
}

// Recalculate drops the site's cached scores, refetches its metrics and
// overwrites the stored score, even when the new score is lower.
func (s *Service) Recalculate(ctx context.Context, siteID string) (types.ScoreReport, error) {
	if err := s.cache.Invalidate(ctx, siteID); err != nil {
		s.logger.Warn(ctx, "score cache invalidation failed", logger.String("site_id", siteID), logger.Error(err))
	}

	ticket := s.tickets.Add(1)
	snap, err := s.fetch(ctx, siteID)
	if err != nil {
		return types.ScoreReport{}, err
	}

	score := s.compute(ctx, siteID, snap.Metrics)
	score.MetricsVersion = snap.Version
	if err := s.store(ctx, ticket, cache.Key{SiteID: siteID, MetricsVersion: snap.Version}, score); err != nil {
		return types.ScoreReport{}, err
	}
	s.recomputed.Add(1)
	return s.report(score, false), nil
}

// EnqueueRecalculation queues one job per site, skipping sites that are
// already pending. When the queue fills up the sites accepted so far stay
// queued and the error wraps queue.ErrQueueFull.
func (s *Service) EnqueueRecalculation(ctx context.Context, siteIDs []string) (BatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return BatchResult{}, ErrNotStarted
	}
	if s.fetcher == nil {
		return BatchResult{}, ErrNoMetricsRepo
	}
	if len(siteIDs) == 0 {
		return BatchResult{}, fmt.Errorf("%w: siteIds must not be empty", ErrInvalidInput)
	}
	for _, id := range siteIDs {
		if strings.TrimSpace(id) == "" {
			return BatchResult{}, fmt.Errorf("%w: siteIds must not contain empty IDs", ErrInvalidInput)
		}
	}

	res := BatchResult{
		JobID:      uuid.NewString(),
		Accepted:   []string{},
		Duplicates: []string{},
	}
	now := time.Now()
	for _, id := range siteIDs {
		if s.deduper.SeenAndRecord(ctx, id) {
			metrics.RecordJobDuplicate()
			res.Duplicates = append(res.Duplicates, id)
			continue
		}
		err := s.queue.Enqueue(ctx, model.RecalcJob{JobID: res.JobID, SiteID: id, EnqueuedAt: now})
		if err != nil {
			// Release the site so a later request can retry it.
			s.deduper.Unrecord(ctx, id)
			s.logger.Warn(ctx, "recalculation not queued",
				logger.String("job_id", res.JobID),
				logger.String("site_id", id),
				logger.Error(err),
			)
			return res, fmt.Errorf("enqueue %s: %w", id, err)
		}
		res.Accepted = append(res.Accepted, id)
	}

	s.logger.Debug(ctx, "recalculation batch queued",
		logger.String("job_id", res.JobID),
		logger.Int("accepted", len(res.Accepted)),
		logger.Int("duplicates", len(res.Duplicates)),
	)
	return res, nil
}

// TopN returns the top N ranked sites.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.ranking.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toEntry(e)
	}
	return out, nil
}

// Rank returns the site's portfolio rank.
func (s *Service) Rank(ctx context.Context, siteID string) (types.Entry, error) {
	e, err := s.ranking.Rank(ctx, siteID)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(e), nil
}

// Grades returns the grade band table.
func (s *Service) Grades() []grading.Band {
	return grading.Bands()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	rankedSites := s.ranking.Count(ctx)
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"cacheBackend":   s.cache.Name(),
		"metricsRepo":    s.fetcher != nil,
		"rankedSites":    rankedSites,
		"scoresComputed": s.scored.Load(),
		"cacheHits":      s.cacheHits.Load(),
		"recalculations": s.recomputed.Load(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["pendingSites"] = s.deduper.Size()
	}

	metrics.UpdateRankedSites(rankedSites)
	return stats
}

func (s *Service) fetch(ctx context.Context, siteID string) (metricsrepo.Snapshot, error) {
	if strings.TrimSpace(siteID) == "" {
		return metricsrepo.Snapshot{}, fmt.Errorf("%w: site ID is required", ErrInvalidInput)
	}
	if s.fetcher == nil {
		return metricsrepo.Snapshot{}, ErrNoMetricsRepo
	}
	snap, err := s.fetcher.Fetch(ctx, siteID)
	if err != nil {
		if !errors.Is(err, metricsrepo.ErrSiteNotFound) {
			metrics.RecordErrorByComponent("service", "metrics_fetch")
		}
		return metricsrepo.Snapshot{}, err
	}
	return snap, nil
}

// compute scores a site and records the outcome.
func (s *Service) compute(ctx context.Context, siteID string, metricsIn []model.RawMetric) model.CompositeScore {
	start := time.Now()
	score := s.scorer.ComputeScore(siteID, metricsIn)
	metrics.RecordScoreComputed(score.Grade, float64(time.Since(start).Microseconds())/1000)
	metrics.RecordDataQualityWarnings(len(score.Warnings))
	s.scored.Add(1)

	if score.LowConfidence {
		metrics.RecordLowConfidence()
		s.logger.Warn(ctx, "site scored without metrics", logger.String("site_id", siteID))
	}
	for _, w := range score.Warnings {
		s.logger.Warn(ctx, "data quality warning",
			logger.String("site_id", siteID),
			logger.String("metric_type", w.MetricType),
			logger.String("metric_name", w.MetricName),
			logger.String("reason", w.Reason),
		)
	}
	return score
}

// store writes a fresh score to the cache, the snapshot store and the
// ranking. A score whose ticket is older than the site's last stored one is
// dropped. Cache failures are logged; persistence failures are returned.
func (s *Service) store(ctx context.Context, ticket uint64, key cache.Key, score model.CompositeScore) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	if ticket < s.committed[score.SiteID] {
		s.logger.Debug(ctx, "stale score not stored",
			logger.String("site_id", score.SiteID),
			logger.String("metrics_version", score.MetricsVersion),
		)
		return nil
	}

	if err := s.cache.Set(ctx, key, score); err != nil {
		s.logger.Warn(ctx, "score cache write failed", logger.String("site_id", score.SiteID), logger.Error(err))
	}
	if err := s.snapshots.Save(ctx, score); err != nil {
		return err
	}
	if _, err := s.ranking.Upsert(ctx, score.SiteID, score.OverallScore, score.Grade); err != nil {
		return err
	}
	s.committed[score.SiteID] = ticket
	return nil
}

func (s *Service) report(score model.CompositeScore, cached bool) types.ScoreReport {
	recs := s.recommender.Recommend(score, score.CategoryMap())
	for _, r := range recs {
		metrics.RecordRecommendation(string(r.Tier))
	}
	return types.ScoreReport{Score: score, Recommendations: recs, Cached: cached}
}

func toEntry(e repository.Entry) types.Entry {
	return types.Entry{Rank: e.Rank, SiteID: e.SiteID, Score: e.Score, Grade: e.Grade}
}
