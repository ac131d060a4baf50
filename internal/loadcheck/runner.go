package loadcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/okian/sitescore/internal/domain/scoring"
	"github.com/okian/sitescore/internal/domain/types"
	"github.com/okian/sitescore/pkg/logger"
)

const maxResponseBytes = 1 << 20

// result is the outcome of one submission.
type result struct {
	site    site
	report  types.ScoreReport
	latency time.Duration
	err     error
}

// Run generates cfg.NumSites sites, posts each to /score with cfg.Workers
// submitters and compares every reply with scorer. The returned Stats are
// complete even when the error is non-nil.
func Run(ctx context.Context, cfg Config, scorer scoring.Scorer) (*Stats, error) {
	log := logger.GetOrNop().Named("loadcheck")
	start := time.Now()
	stats := &Stats{}

	client := &http.Client{Timeout: cfg.Timeout}
	if err := checkHealth(ctx, client, cfg.BaseURL); err != nil {
		return stats, err
	}

	sites := generateSites(cfg.NumSites, cfg.Seed)
	stats.SitesGenerated = len(sites)
	log.Info(ctx, "submitting generated sites",
		logger.Int("sites", len(sites)),
		logger.Int("workers", cfg.Workers),
	)

	for r := range submit(ctx, client, cfg, sites) {
		stats.Submitted++
		if r.err != nil {
			stats.Failed++
			log.Warn(ctx, "score request failed", logger.String("site_id", r.site.SiteID), logger.Error(r.err))
			continue
		}
		stats.Succeeded++
		stats.Latencies = append(stats.Latencies, r.latency)

		local := scorer.ComputeScore(r.site.SiteID, r.site.Metrics)
		got := r.report.Score
		if local.OverallScore != got.OverallScore || local.Grade != got.Grade {
			stats.Mismatches = append(stats.Mismatches, Mismatch{
				SiteID:      r.site.SiteID,
				LocalScore:  local.OverallScore,
				LocalGrade:  local.Grade,
				ServerScore: got.OverallScore,
				ServerGrade: got.Grade,
			})
		}
	}
	slices.Sort(stats.Latencies)
	stats.Duration = time.Since(start)

	log.Info(ctx, "check finished",
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Int("mismatches", len(stats.Mismatches)),
		logger.Duration("p50", stats.Percentile(50)),
		logger.Duration("p99", stats.Percentile(99)),
		logger.Duration("duration", stats.Duration),
	)

	switch {
	case len(stats.Mismatches) > 0:
		return stats, fmt.Errorf("%w: %d of %d sites", ErrMismatch, len(stats.Mismatches), stats.Succeeded)
	case stats.Failed > 0:
		return stats, fmt.Errorf("%w: %d of %d", ErrFailed, stats.Failed, stats.Submitted)
	}
	return stats, nil
}

// submit fans sites out to workers and streams results back. The channel
// closes once every site has been attempted or ctx ends.
func submit(ctx context.Context, client *http.Client, cfg Config, sites []site) <-chan result {
	workers := max(cfg.Workers, 1)
	jobs := make(chan site, workers*2)
	results := make(chan result, workers*2)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				results <- postScore(ctx, client, cfg.BaseURL, s)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, s := range sites {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func postScore(ctx context.Context, client *http.Client, baseURL string, s site) result {
	body, err := json.Marshal(s)
	if err != nil {
		return result{site: s, err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return result{site: s, err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return result{site: s, err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	latency := time.Since(start)
	if err != nil {
		return result{site: s, err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return result{site: s, err: fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(data))}
	}

	var report types.ScoreReport
	if err := json.Unmarshal(data, &report); err != nil {
		return result{site: s, err: fmt.Errorf("decode: %w", err)}
	}
	return result{site: s, report: report, latency: latency}
}

// checkHealth verifies the server answers /healthz.
func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}
