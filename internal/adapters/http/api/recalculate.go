package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/sitescore/internal/app"
	"github.com/okian/sitescore/internal/domain/types"
)

// RecalculateDependencies defines the interface for recalculation operations.
type RecalculateDependencies interface {
	Recalculate(ctx context.Context, siteID string) (types.ScoreReport, error)
	EnqueueRecalculation(ctx context.Context, siteIDs []string) (service.BatchResult, error)
}

// RecalculateHandler handles synchronous and batch recalculation requests.
type RecalculateHandler struct {
	deps         RecalculateDependencies
	maxBodyBytes int64
}

// NewRecalculateHandler creates a new recalculation handler.
func NewRecalculateHandler(deps RecalculateDependencies, maxBodyBytes int64) *RecalculateHandler {
	return &RecalculateHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// batchRequest mirrors the OpenAPI schema for POST /recalculate.
type batchRequest struct {
	SiteIDs []string `json:"siteIds"`
}

// HandlePostSite handles POST /sites/{id}/recalculate requests.
func (h *RecalculateHandler) HandlePostSite(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_site_recalculate"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	siteID, ok := siteIDFromPath(w, r, op)
	if !ok {
		return
	}
	report, err := h.deps.Recalculate(r.Context(), siteID)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandlePostBatch handles POST /recalculate requests. Accepted sites are
// recalculated asynchronously; sites already pending are reported as
// duplicates.
func (h *RecalculateHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recalculate"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req batchRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.SiteIDs) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errMissing("siteIds")))
		return
	}
	for i, id := range req.SiteIDs {
		req.SiteIDs[i] = strings.TrimSpace(id)
	}

	res, err := h.deps.EnqueueRecalculation(r.Context(), req.SiteIDs)
	if err != nil {
		if len(res.Accepted) > 0 {
			err = fmt.Errorf("%w (%d of %d sites queued)", err, len(res.Accepted), len(req.SiteIDs))
		}
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}
