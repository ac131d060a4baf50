package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func metric(metricType, name string, v float64) model.RawMetric {
	return model.NewRawMetric("site-1", metricType, name, v)
}

func TestKindOf(t *testing.T) {
	Convey("Given metric names from the repository", t, func() {
		Convey("When the name carries a single marker", func() {
			So(scoring.KindOf("Population Growth"), ShouldEqual, scoring.KindGrowth)
			So(scoring.KindOf("Median Household INCOME"), ShouldEqual, scoring.KindIncome)
			So(scoring.KindOf("Vacancy Rate"), ShouldEqual, scoring.KindRate)
			So(scoring.KindOf("Walk Score"), ShouldEqual, scoring.KindUnknown)
			So(scoring.KindOf(""), ShouldEqual, scoring.KindUnknown)
		})

		Convey("When the name carries several markers", func() {
			Convey("Then growth wins over income and rate", func() {
				So(scoring.KindOf("Income Growth Rate"), ShouldEqual, scoring.KindGrowth)
			})
			Convey("And income wins over rate", func() {
				So(scoring.KindOf("Income Tax Rate"), ShouldEqual, scoring.KindIncome)
			})
		})

		Convey("Then every kind has a readable name", func() {
			So(scoring.KindGrowth.String(), ShouldEqual, "growth")
			So(scoring.KindIncome.String(), ShouldEqual, "income")
			So(scoring.KindRate.String(), ShouldEqual, "rate")
			So(scoring.KindUnknown.String(), ShouldEqual, "unknown")
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given the metric normalizer", t, func() {
		Convey("When normalizing growth metrics", func() {
			score := func(v float64) float64 {
				s, w := scoring.Normalize(metric("demographics", "Population Growth", v))
				So(w, ShouldBeNil)
				return s
			}

			Convey("Then the [-2%, +2%] band maps onto [0, 100]", func() {
				So(score(0), ShouldEqual, 50)
				So(score(1), ShouldEqual, 75)
				So(score(-2), ShouldEqual, 0)
				So(score(2), ShouldEqual, 100)
			})

			Convey("And values outside the band saturate", func() {
				So(score(6.5), ShouldEqual, 100)
				So(score(-4), ShouldEqual, 0)
			})
		})

		Convey("When normalizing income metrics", func() {
			s, _ := scoring.Normalize(metric("financial", "Median Income", 55_000))
			So(s, ShouldEqual, 55)

			s, _ = scoring.Normalize(metric("financial", "Median Income", 250_000))
			So(s, ShouldEqual, 100)

			s, _ = scoring.Normalize(metric("financial", "Median Income", -1))
			So(s, ShouldEqual, 0)
		})

		Convey("When normalizing rate metrics inside [0, 100]", func() {
			Convey("Then the value passes through unchanged", func() {
				for _, v := range []float64{0, 0.5, 12.25, 50, 99.9, 100} {
					s, w := scoring.Normalize(metric("market", "Occupancy Rate", v))
					So(w, ShouldBeNil)
					So(s, ShouldEqual, v)
				}
			})

			Convey("And values outside are clamped", func() {
				s, _ := scoring.Normalize(metric("market", "Occupancy Rate", 140))
				So(s, ShouldEqual, 100)
				s, _ = scoring.Normalize(metric("market", "Occupancy Rate", -3))
				So(s, ShouldEqual, 0)
			})
		})

		Convey("When normalizing an unrecognized metric", func() {
			s, w := scoring.Normalize(metric("location", "Walk Score", 93))

			Convey("Then it scores neutral without a warning", func() {
				So(s, ShouldEqual, scoring.NeutralScore)
				So(w, ShouldBeNil)
			})
		})

		Convey("When the value is missing or not a number", func() {
			missing := model.RawMetric{SiteID: "site-9", MetricType: "risk", MetricName: "Flood Rate"}
			nan := metric("risk", "Flood Rate", math.NaN())
			inf := metric("risk", "Flood Rate", math.Inf(1))

			Convey("Then it scores neutral and reports a data-quality warning", func() {
				for _, m := range []model.RawMetric{missing, nan, inf} {
					s, w := scoring.Normalize(m)
					So(s, ShouldEqual, scoring.NeutralScore)
					So(w, ShouldNotBeNil)
					So(w.MetricName, ShouldEqual, "Flood Rate")
					So(w.MetricType, ShouldEqual, "risk")
				}
			})
		})

		Convey("Then every output stays within [0, 100]", func() {
			names := []string{"Job Growth", "Per Capita Income", "Absorption Rate", "Traffic Count"}
			values := []float64{-1e9, -50, -2.5, 0, 1.7, 42, 1e3, 1e12}
			for _, n := range names {
				for _, v := range values {
					s, _ := scoring.Normalize(metric("market", n, v))
					So(s, ShouldBeBetweenOrEqual, 0, 100)
				}
			}
		})
	})
}
