package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then metrics use the default namespace and subsystem", func() {
				So(manager, ShouldNotBeNil)
				manager.scoresComputed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "sitescore_engine_scores_computed_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("acme"),
				WithSubsystem("feasibility"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.lowConfidence.Inc()

			Convey("Then names and constant labels follow the options", func() {
				expected := `
# HELP acme_feasibility_low_confidence_total Scores computed for sites without any metrics
# TYPE acme_feasibility_low_confidence_total counter
acme_feasibility_low_confidence_total{env="test"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "acme_feasibility_low_confidence_total")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording a computed score", func() {
			before := testutil.ToFloat64(globalManager.gradeDistribution.WithLabelValues("C"))
			RecordScoreComputed("C", 1.5)

			Convey("Then the grade distribution is incremented", func() {
				So(testutil.ToFloat64(globalManager.gradeDistribution.WithLabelValues("C")), ShouldEqual, before+1)
			})
		})

		Convey("When recording data quality warnings", func() {
			before := testutil.ToFloat64(globalManager.dataQualityWarnings)
			RecordDataQualityWarnings(3)
			RecordDataQualityWarnings(0)

			Convey("Then only positive counts are added", func() {
				So(testutil.ToFloat64(globalManager.dataQualityWarnings), ShouldEqual, before+3)
			})
		})

		Convey("When recording cache activity", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits.WithLabelValues("memory"))
			RecordCacheHit("memory")
			RecordCacheMiss("memory")
			RecordCacheInvalidation("redis")
			So(testutil.ToFloat64(globalManager.cacheHits.WithLabelValues("memory")), ShouldEqual, hits+1)
		})

		Convey("When updating gauges", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateRankedSites(12)
			UpdateWorkerActiveCount(4)

			Convey("Then the gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.rankedSites), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.workerActiveCount), ShouldEqual, 4)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordLowConfidence()
				RecordRecommendation("High")
				RecordSnapshotWrite()
				RecordSnapshotError()
				RecordFetchLatency(12)
				RecordFetchError("timeout")
				RecordHTTPRequest("score", "POST", "200")
				RecordHTTPRequestDuration("score", "POST", "200", 3)
				UpdateQueueUtilization(0.07)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordJobDuplicate()
				RecordWorkerProcessingLatency(8)
				RecordWorkerError()
				RecordErrorByComponent("worker", "fetch_error")
				RecordErrorByType("fetch_error", "high")
				RecordErrorByEndpoint("score", "POST", "client_error")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
