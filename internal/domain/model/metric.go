// Package model contains domain models passed between layers.
package model

import "math"

// RawMetric is one loosely-typed measurement for a site as supplied by the
// metrics repository. Fields mirror the repository's JSON shape.
type RawMetric struct {
	SiteID     string   `json:"siteId" yaml:"siteId"`
	MetricType string   `json:"metricType" yaml:"metricType"` // category hint, e.g. "demographics"
	MetricName string   `json:"metricName" yaml:"metricName"` // e.g. "Population Growth"
	Value      *float64 `json:"value" yaml:"value"`           // nil when the repository has no value
}

// NewRawMetric builds a metric with a present value.
func NewRawMetric(siteID, metricType, metricName string, value float64) RawMetric {
	return RawMetric{
		SiteID:     siteID,
		MetricType: metricType,
		MetricName: metricName,
		Value:      &value,
	}
}

// Float returns the metric value and whether it is usable.
// Missing, NaN and infinite values are reported as unusable.
func (m RawMetric) Float() (float64, bool) {
	if m.Value == nil {
		return 0, false
	}
	v := *m.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// DataQualityWarning flags a metric that could not be interpreted and was
// substituted with the neutral score.
type DataQualityWarning struct {
	SiteID     string `json:"siteId" yaml:"siteId"`
	MetricType string `json:"metricType" yaml:"metricType"`
	MetricName string `json:"metricName" yaml:"metricName"`
	Reason     string `json:"reason" yaml:"reason"`
}
