// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/sitescore/internal/adapters/metricsrepo"
	"github.com/okian/sitescore/internal/adapters/mq/queue"
	"github.com/okian/sitescore/internal/adapters/repository"
	service "github.com/okian/sitescore/internal/app"
	"github.com/okian/sitescore/internal/domain/grading"
	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/types"
)

const (
	defaultMaxLimit     = 100
	defaultLimit        = 10
	defaultMaxBodyBytes = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Score(ctx context.Context, siteID string, metrics []model.RawMetric) (types.ScoreReport, error)
	SiteScore(ctx context.Context, siteID string) (types.ScoreReport, error)
	Recalculate(ctx context.Context, siteID string) (types.ScoreReport, error)
	EnqueueRecalculation(ctx context.Context, siteIDs []string) (service.BatchResult, error)

	// Read operations expose portfolio data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, siteID string) (Entry, error)
	Grades() []grading.Band

	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	maxLimit     int
	maxBodyBytes int64

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	recalcHandler      *RecalculateHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	gradesHandler      *GradesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxLimit:     defaultMaxLimit,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.scoreHandler = NewScoreHandler(deps, s.maxBodyBytes)
	s.recalcHandler = NewRecalculateHandler(deps, s.maxBodyBytes)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	s.gradesHandler = NewGradesHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/grades", MetricsMiddleware(s.gradesHandler.HandleGetGrades, "grades"))
	mux.HandleFunc("/score", MetricsMiddleware(s.scoreHandler.HandlePostScore, "score"))
	mux.HandleFunc("/recalculate", MetricsMiddleware(s.recalcHandler.HandlePostBatch, "recalculate_batch"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/sites/{id}/score", MetricsMiddleware(s.scoreHandler.HandleGetSiteScore, "site_score"))
	mux.HandleFunc("/sites/{id}/recalculate", MetricsMiddleware(s.recalcHandler.HandlePostSite, "site_recalculate"))
	mux.HandleFunc("/sites/{id}/rank", MetricsMiddleware(s.rankHandler.HandleGetRank, "site_rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates errors from the service and its adapters into
// an HTTP status and error code.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, metricsrepo.ErrSiteNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure),
		errors.Is(err, queue.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, service.ErrNoMetricsRepo),
		errors.Is(err, queue.ErrQueueClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, metricsrepo.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
