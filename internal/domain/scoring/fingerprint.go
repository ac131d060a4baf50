package scoring

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/sitescore/internal/domain/model"
)

// Fingerprint derives a metrics version from the metric list. The result is
// independent of input order so two fetches of the same data agree.
func Fingerprint(metrics []model.RawMetric) string {
	lines := make([]string, len(metrics))
	for i, m := range metrics {
		value := "null"
		if m.Value != nil {
			value = strconv.FormatFloat(*m.Value, 'g', -1, 64)
		}
		lines[i] = strings.Join([]string{m.SiteID, m.MetricType, m.MetricName, value}, "\x1f")
	}
	sort.Strings(lines)

	d := xxhash.New()
	for _, l := range lines {
		_, _ = d.WriteString(l)
		_, _ = d.WriteString("\x1e")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
