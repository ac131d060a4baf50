package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/okian/sitescore/internal/domain/grading"
	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/types"
)

// tokenColors maps band color tokens to ANSI 256 colors.
var tokenColors = map[string]lipgloss.Color{
	grading.ColorGreen:  lipgloss.Color("28"),
	grading.ColorLime:   lipgloss.Color("112"),
	grading.ColorYellow: lipgloss.Color("220"),
	grading.ColorOrange: lipgloss.Color("208"),
	grading.ColorRed:    lipgloss.Color("160"),
}

var tierColors = map[model.Tier]lipgloss.Color{
	model.TierHigh:   lipgloss.Color("9"),
	model.TierMedium: lipgloss.Color("3"),
	model.TierFuture: lipgloss.Color("12"),
}

// styles are bound to the output writer so color is dropped when it is not
// a terminal.
type styles struct {
	r      *lipgloss.Renderer
	header lipgloss.Style
	dim    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		r:      r,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s styles) badge(grade, token string) string {
	return s.r.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(tokenColors[token]).
		Padding(0, 1).
		Render(grade)
}

func (s styles) tier(t model.Tier) string {
	return s.r.NewStyle().Foreground(tierColors[t]).Render(fmt.Sprintf("%-6s", t))
}

func writeReport(w io.Writer, format string, report types.ScoreReport) error {
	switch format {
	case formatJSON:
		return writeJSON(w, report)
	case formatYAML:
		return writeYAML(w, report)
	}

	s := newStyles(w)
	score := report.Score
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s  %d/100  %s\n",
		s.badge(score.Grade, score.ColorToken), score.SiteID, score.OverallScore, score.Label)
	if score.LowConfidence {
		b.WriteString(s.dim.Render("low confidence: no usable metrics") + "\n")
	}

	b.WriteString("\n" + s.header.Render("Categories") + "\n")
	for _, c := range score.Categories {
		fmt.Fprintf(&b, "  %-14s %5.1f  %s\n", c.Key, c.Score, bar(c.Score))
	}

	if len(score.Warnings) > 0 {
		b.WriteString("\n" + s.header.Render("Data quality") + "\n")
		for _, wq := range score.Warnings {
			fmt.Fprintf(&b, "  %s/%s: %s\n", wq.MetricType, wq.MetricName, wq.Reason)
		}
	}

	b.WriteString("\n" + s.header.Render("Recommendations") + "\n")
	for _, r := range report.Recommendations {
		fmt.Fprintf(&b, "  %s %s\n", s.tier(r.Tier), r.Text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLegend(w io.Writer, format string, bands []grading.Band) error {
	switch format {
	case formatJSON:
		return writeJSON(w, bands)
	case formatYAML:
		return writeYAML(w, bands)
	}

	s := newStyles(w)
	var b strings.Builder
	for i, band := range bands {
		hi := band.Max
		if i > 0 {
			hi = band.Max - 1
		}
		fmt.Fprintf(&b, "%s  %3g-%-3g  %s\n", s.badge(string(band.Grade), band.Color), band.Min, hi, band.Label)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// bar draws a 20-cell gauge for a 0-100 score.
func bar(score float64) string {
	n := int(score/5 + 0.5)
	n = max(0, min(n, 20))
	return strings.Repeat("█", n) + strings.Repeat("░", 20-n)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
