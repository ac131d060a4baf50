package loadcheck

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/sitescore/internal/domain/model"
)

// metricTemplate is a metric the generator emits with a random value in
// [lo, hi). A missingRate share of values is left empty.
type metricTemplate struct {
	metricType string
	metricName string
	lo, hi     float64
}

var templates = [...]metricTemplate{
	{"demographics", "Population Growth", -3, 3},
	{"demographics", "Median Household Income", 20_000, 140_000},
	{"location", "Transit Access Rate", 0, 100},
	{"location", "Walkability", 0, 100},
	{"market", "Occupancy Rate", 40, 100},
	{"market", "Rent Growth", -2.5, 2.5},
	{"development", "Permit Approval Rate", 0, 100},
	{"financial", "Cap Rate", 3, 12},
	{"risk", "Flood Rate", 0, 100},
}

const missingRate = 0.05

// site is one generated score request.
type site struct {
	SiteID  string            `json:"siteId"`
	Metrics []model.RawMetric `json:"metrics"`
}

// generateSites builds n sites. Site IDs are derived from the seed so a
// rerun with the same seed reproduces the same payloads.
func generateSites(n int, seed uint64) []site {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	sites := make([]site, n)
	for i := range sites {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("sitescore/%d/%d", seed, i))).String()

		metrics := make([]model.RawMetric, 0, len(templates))
		for _, t := range templates {
			// Roughly a third of the templates are skipped per site so
			// categories go missing too.
			if rng.Float64() < 0.3 {
				continue
			}
			m := model.RawMetric{SiteID: id, MetricType: t.metricType, MetricName: t.metricName}
			if rng.Float64() >= missingRate {
				v := t.lo + rng.Float64()*(t.hi-t.lo)
				m.Value = &v
			}
			metrics = append(metrics, m)
		}
		sites[i] = site{SiteID: id, Metrics: metrics}
	}
	return sites
}
