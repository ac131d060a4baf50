package api

import (
	"net/http"

	"github.com/okian/sitescore/internal/domain/grading"
)

// GradesProvider exposes the grade band table.
type GradesProvider interface {
	Grades() []grading.Band
}

// GradesHandler serves the legend used by badges and map markers.
type GradesHandler struct {
	deps GradesProvider
}

// NewGradesHandler creates a new grades handler.
func NewGradesHandler(deps GradesProvider) *GradesHandler {
	return &GradesHandler{deps: deps}
}

// HandleGetGrades handles GET /grades requests.
func (h *GradesHandler) HandleGetGrades(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Grades())
}
