package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/sitescore/internal/adapters/cache"
	"github.com/okian/sitescore/internal/adapters/http/api"
	"github.com/okian/sitescore/internal/adapters/http/site"
	"github.com/okian/sitescore/internal/adapters/http/swagger"
	"github.com/okian/sitescore/internal/adapters/metricsrepo"
	"github.com/okian/sitescore/internal/adapters/repository"
	app "github.com/okian/sitescore/internal/app"
	"github.com/okian/sitescore/internal/config"
	"github.com/okian/sitescore/internal/domain/recommend"
	"github.com/okian/sitescore/internal/domain/scoring"
	"github.com/okian/sitescore/pkg/logger"
	"github.com/okian/sitescore/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Default Go collectors would duplicate the custom system metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	svc.Stop(shutdownCtx)

	loggerInstance.Info(ctx, "server stopped")
}

// buildService assembles the scoring service and its adapters from cfg.
// Adapters opened here are owned by the service and closed by Stop.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	scorer, err := scoring.New(scoring.WithWeightsFromConfig(cfg.CategoryWeights))
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}

	rules := make([]recommend.RuleSpec, 0, len(cfg.CustomRules))
	for _, r := range cfg.CustomRules {
		rules = append(rules, recommend.RuleSpec{Name: r.Name, Tier: r.Tier, Text: r.Text, When: r.When})
	}
	recommender, err := recommend.New(
		recommend.WithCategories(scorer.Weights().Keys()),
		recommend.WithCustomRules(rules),
	)
	if err != nil {
		return nil, fmt.Errorf("recommendation engine: %w", err)
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithScorer(scorer),
		app.WithRecommender(recommender),
	}

	if cfg.MetricsRepoURL != "" {
		client, err := metricsrepo.New(cfg.MetricsRepoURL, metricsrepo.WithTimeout(cfg.MetricsRepoTimeout()))
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithFetcher(client))
	} else {
		log.Warn(ctx, "no metrics repository configured; site lookups disabled")
	}

	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		opts = append(opts, app.WithCache(cache.NewRedis(
			cache.RedisOptions{Address: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
			cache.WithTTL(cfg.CacheTTL()),
		)))
	default:
		opts = append(opts, app.WithCache(cache.NewMemory(cache.WithMaxEntries(cfg.CacheSize))))
	}

	if cfg.SnapshotDBPath != "" {
		store, err := repository.OpenSQLite(ctx, cfg.SnapshotDBPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithSnapshotStore(store))
	}

	return app.New(opts...)
}

// newMux registers the landing page, API docs and business routes.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit)).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges derived from service stats.
// GetStats itself updates the ranked-site gauge.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
}
