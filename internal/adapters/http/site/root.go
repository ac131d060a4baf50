// Package site serves the landing page with the grade legend.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/okian/sitescore/internal/domain/grading"
)

// Error constants
var (
	ErrRender = errors.New("landing page render failed")
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// legendRow is one rendered band.
type legendRow struct {
	Grade grading.Grade
	Label string
	Color string
	Range string
}

// Register attaches the landing page to mux. Only the exact root path is
// served so unknown paths still 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/{$}", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct {
	bands []grading.Band
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{bands: grading.Bands()}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	body, err := h.render()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func (h *RootHandler) render() ([]byte, error) {
	rows := make([]legendRow, 0, len(h.bands))
	for i, b := range h.bands {
		rng := fmt.Sprintf("%g–%g", b.Min, b.Max)
		if i > 0 {
			rng = fmt.Sprintf("%g–%g", b.Min, b.Max-1)
		}
		rows = append(rows, legendRow{Grade: b.Grade, Label: b.Label, Color: b.Color, Range: rng})
	}
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, struct{ Bands []legendRow }{rows}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}
