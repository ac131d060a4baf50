package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/types"
)

// ScoreDependencies defines the interface for scoring operations.
type ScoreDependencies interface {
	Score(ctx context.Context, siteID string, metrics []model.RawMetric) (types.ScoreReport, error)
	SiteScore(ctx context.Context, siteID string) (types.ScoreReport, error)
}

// ScoreHandler handles score requests.
type ScoreHandler struct {
	deps         ScoreDependencies
	maxBodyBytes int64
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies, maxBodyBytes int64) *ScoreHandler {
	return &ScoreHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// scoreRequest mirrors the OpenAPI schema for POST /score.
type scoreRequest struct {
	SiteID  string            `json:"siteId"`
	Metrics []model.RawMetric `json:"metrics"`
}

// HandlePostScore handles POST /score requests. Metrics that omit siteId
// inherit the request's site.
func (h *ScoreHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req scoreRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req.SiteID = strings.TrimSpace(req.SiteID)
	if req.SiteID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissing("siteId")))
		return
	}
	for i := range req.Metrics {
		if req.Metrics[i].SiteID == "" {
			req.Metrics[i].SiteID = req.SiteID
		}
	}

	report, err := h.deps.Score(r.Context(), req.SiteID, req.Metrics)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetSiteScore handles GET /sites/{id}/score requests.
func (h *ScoreHandler) HandleGetSiteScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_site_score"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	siteID, ok := siteIDFromPath(w, r, op)
	if !ok {
		return
	}
	report, err := h.deps.SiteScore(r.Context(), siteID)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
