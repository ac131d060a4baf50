// Package metricsrepo fetches raw site metrics from the metrics repository
// over HTTP.
package metricsrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/scoring"
	"github.com/okian/sitescore/pkg/metrics"
)

const (
	defaultTimeout = 2 * time.Second
	maxBodyBytes   = 8 << 20
)

// Sentinel errors for repository calls.
var (
	ErrSiteNotFound  = errors.New("site not found in metrics repository")
	ErrUpstream      = errors.New("metrics repository error")
	ErrNotConfigured = errors.New("metrics repository not configured")
)

// Snapshot is the metric list of one site plus its version.
type Snapshot struct {
	SiteID  string
	Metrics []model.RawMetric
	// Version is the ETag when the repository sends one, otherwise a
	// fingerprint of the metric list.
	Version string
}

// Fetcher is what the application service needs from the repository.
type Fetcher interface {
	Fetch(ctx context.Context, siteID string) (Snapshot, error)
}

// Client implements Fetcher.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
}

// New creates a client for baseURL, e.g. "http://metrics.internal/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("metrics repository url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("metrics repository url %q: unsupported scheme", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch GETs {base}/sites/{id}/metrics.
func (c *Client) Fetch(ctx context.Context, siteID string) (Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL.JoinPath("sites", url.PathEscape(siteID), "metrics")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordFetchError(fetchErrorReason(err))
		return Snapshot{}, fmt.Errorf("%w: %s: %w", ErrUpstream, siteID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordFetchError("not_found")
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSiteNotFound, siteID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.RecordFetchError("status_" + strconv.Itoa(resp.StatusCode))
		return Snapshot{}, fmt.Errorf("%w: %s: status %d", ErrUpstream, siteID, resp.StatusCode)
	}

	var list []model.RawMetric
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&list); err != nil {
		metrics.RecordFetchError("decode")
		return Snapshot{}, fmt.Errorf("%w: %s: decode: %v", ErrUpstream, siteID, err)
	}

	version := strings.Trim(resp.Header.Get("ETag"), `"`)
	if version == "" {
		version = scoring.Fingerprint(list)
	}
	return Snapshot{SiteID: siteID, Metrics: list, Version: version}, nil
}

func fetchErrorReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "transport"
}
