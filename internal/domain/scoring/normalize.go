package scoring

import (
	"math"

	"github.com/okian/sitescore/internal/domain/model"
)

// Normalization constants.
const (
	// NeutralScore is substituted when a metric or category has no usable data.
	NeutralScore = 50.0

	minScore = 0.0
	maxScore = 100.0

	// Growth rates in [-2%, +2%] map linearly onto [0, 100].
	growthOffset = 2.0
	growthScale  = 25.0

	// Income in raw currency units; 100,000 maps to 100.
	incomeDivisor = 1000.0
)

// Warning reasons.
const (
	reasonMissingValue = "missing or non-numeric value; neutral score substituted"
)

// Normalize maps one raw metric to a 0-100 sub-score. A metric without a
// usable value scores neutral and yields a data-quality warning.
func Normalize(m model.RawMetric) (float64, *model.DataQualityWarning) {
	v, ok := m.Float()
	if !ok {
		return NeutralScore, &model.DataQualityWarning{
			SiteID:     m.SiteID,
			MetricType: m.MetricType,
			MetricName: m.MetricName,
			Reason:     reasonMissingValue,
		}
	}
	return NormalizeValue(KindOf(m.MetricName), v), nil
}

// NormalizeValue applies the kind's normalization to a usable value.
func NormalizeValue(kind MetricKind, v float64) float64 {
	switch kind {
	case KindGrowth:
		return clamp((v+growthOffset)*growthScale, minScore, maxScore)
	case KindIncome:
		return clamp(v/incomeDivisor, minScore, maxScore)
	case KindRate:
		return clamp(v, minScore, maxScore)
	case KindUnknown:
		return NeutralScore
	default:
		return NeutralScore
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
