package scoring

import "strings"

// MetricKind is the normalization family of a metric. Every metric name
// resolves to exactly one kind, and Normalize switches over all of them.
type MetricKind int

// Metric kinds. KindUnknown is the zero value.
const (
	KindUnknown MetricKind = iota
	KindGrowth
	KindIncome
	KindRate
)

// kindMarkers lists name markers in precedence order: a name containing
// several markers takes the first kind listed.
var kindMarkers = [...]struct {
	marker string
	kind   MetricKind
}{
	{"growth", KindGrowth},
	{"income", KindIncome},
	{"rate", KindRate},
}

// KindOf resolves a metric name to its kind by case-insensitive substring.
func KindOf(metricName string) MetricKind {
	name := strings.ToLower(metricName)
	for _, km := range kindMarkers {
		if strings.Contains(name, km.marker) {
			return km.kind
		}
	}
	return KindUnknown
}

func (k MetricKind) String() string {
	switch k {
	case KindGrowth:
		return "growth"
	case KindIncome:
		return "income"
	case KindRate:
		return "rate"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}
