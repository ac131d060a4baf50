package scoring

import (
	"math"
	"strings"

	"github.com/okian/sitescore/internal/domain/model"
)

// Aggregate scores one category: the rounded mean of the normalized values
// of every metric whose type contains key (case-insensitive). A category
// with no metrics scores neutral. Repeated metric names are not collapsed,
// so a metric reported twice counts twice.
func Aggregate(key string, metrics []model.RawMetric) model.CategoryScore {
	normalized := make([]float64, len(metrics))
	for i, m := range metrics {
		normalized[i], _ = Normalize(m)
	}
	return aggregateNormalized(key, metrics, normalized)
}

// aggregateNormalized averages pre-normalized values; normalized[i]
// belongs to metrics[i].
func aggregateNormalized(key string, metrics []model.RawMetric, normalized []float64) model.CategoryScore {
	needle := strings.ToLower(key)
	sum, n := 0.0, 0
	for i, m := range metrics {
		if !strings.Contains(strings.ToLower(m.MetricType), needle) {
			continue
		}
		sum += normalized[i]
		n++
	}
	if n == 0 {
		return model.CategoryScore{Key: key, Score: NeutralScore}
	}
	return model.CategoryScore{Key: key, Score: clamp(math.Round(sum/float64(n)), minScore, maxScore)}
}
