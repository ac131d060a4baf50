// Package grading owns the score-band table: the one place that maps an
// overall 0-100 score to a letter grade, a qualitative label and a color
// token. Badges, map markers and legends all render from Bands().
package grading

import "math"

// Grade is a letter classification.
type Grade string

// Letter grades from best to worst.
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Color tokens consumed by presentation surfaces.
const (
	ColorGreen  = "green"
	ColorLime   = "lime"
	ColorYellow = "yellow"
	ColorOrange = "orange"
	ColorRed    = "red"
)

// Band is one row of the classification table. Min is inclusive; Max is
// exclusive except for the top band, which includes 100.
type Band struct {
	Grade Grade   `json:"grade" yaml:"grade"`
	Label string  `json:"label" yaml:"label"`
	Color string  `json:"color" yaml:"color"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
}

// Classification is the rendering triple for a score.
type Classification struct {
	Grade      Grade  `json:"grade"`
	Label      string `json:"label"`
	ColorToken string `json:"colorToken"`
}

// bands is ordered from the highest band down; Classify relies on that.
var bands = [...]Band{
	{Grade: GradeA, Label: "Exceptional Opportunity", Color: ColorGreen, Min: 85, Max: 100},
	{Grade: GradeB, Label: "Strong Development Potential", Color: ColorLime, Min: 70, Max: 85},
	{Grade: GradeC, Label: "Moderate Opportunity", Color: ColorYellow, Min: 55, Max: 70},
	{Grade: GradeD, Label: "Challenges Present", Color: ColorOrange, Min: 40, Max: 55},
	{Grade: GradeF, Label: "High Risk Development", Color: ColorRed, Min: 0, Max: 40},
}

// Classify maps an overall score to its band. Scores above 100 fall in the
// top band; negative and NaN scores fall in the bottom band.
func Classify(score float64) Classification {
	if math.IsNaN(score) {
		return bands[len(bands)-1].classification()
	}
	for _, b := range bands {
		if score >= b.Min {
			return b.classification()
		}
	}
	return bands[len(bands)-1].classification()
}

// Bands returns a copy of the table, best band first.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands[:])
	return out
}

// BandFor looks up the band for a letter grade.
func BandFor(g Grade) (Band, bool) {
	for _, b := range bands {
		if b.Grade == g {
			return b, true
		}
	}
	return Band{}, false
}

// Contains reports whether score falls inside the band.
func (b Band) Contains(score float64) bool {
	if score < b.Min {
		return false
	}
	if b.Grade == GradeA {
		return score <= b.Max
	}
	return score < b.Max
}

func (b Band) classification() Classification {
	return Classification{Grade: b.Grade, Label: b.Label, ColorToken: b.Color}
}
