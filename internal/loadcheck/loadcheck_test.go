package loadcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sitescore/internal/adapters/http/api"
	service "github.com/okian/sitescore/internal/app"
	"github.com/okian/sitescore/internal/domain/scoring"
)

func newServer(t *testing.T, opts ...scoring.Option) *httptest.Server {
	t.Helper()
	scorer, err := scoring.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := service.New(service.WithScorer(scorer))
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestGenerateSites(t *testing.T) {
	Convey("Given a seed", t, func() {
		a := generateSites(50, 7)
		b := generateSites(50, 7)
		c := generateSites(50, 8)

		Convey("Equal seeds generate equal sites", func() {
			So(a, ShouldResemble, b)
		})

		Convey("Different seeds generate different site IDs", func() {
			So(a[0].SiteID, ShouldNotEqual, c[0].SiteID)
		})

		Convey("Every metric belongs to its site", func() {
			for _, s := range a {
				for _, m := range s.Metrics {
					So(m.SiteID, ShouldEqual, s.SiteID)
				}
			}
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a server using the default weights", t, func() {
		srv := newServer(t)
		defer srv.Close()

		engine, err := scoring.New()
		So(err, ShouldBeNil)

		Convey("Every reply matches the local engine", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL: srv.URL, NumSites: 40, Workers: 4, Timeout: 5 * time.Second, Seed: 1,
			}, engine)

			So(err, ShouldBeNil)
			So(stats.SitesGenerated, ShouldEqual, 40)
			So(stats.Succeeded, ShouldEqual, 40)
			So(stats.Failed, ShouldEqual, 0)
			So(stats.Mismatches, ShouldBeEmpty)
			So(stats.Percentile(99), ShouldBeGreaterThanOrEqualTo, stats.Percentile(50))
		})
	})

	Convey("Given a server with different weights", t, func() {
		srv := newServer(t, scoring.WithWeightsFromConfig(map[string]int{"risk": 100}))
		defer srv.Close()

		engine, err := scoring.New()
		So(err, ShouldBeNil)

		Convey("Run reports the mismatches", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL: srv.URL, NumSites: 40, Workers: 2, Timeout: 5 * time.Second, Seed: 3,
			}, engine)

			So(errors.Is(err, ErrMismatch), ShouldBeTrue)
			So(stats.Mismatches, ShouldNotBeEmpty)
		})
	})

	Convey("Given an unhealthy server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("Run stops before submitting", func() {
			stats, err := Run(context.Background(), Config{BaseURL: srv.URL, NumSites: 5, Workers: 1, Timeout: time.Second}, nil)
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
			So(stats.Submitted, ShouldEqual, 0)
		})
	})
}

func TestPercentile(t *testing.T) {
	Convey("Given sorted latencies", t, func() {
		s := &Stats{}
		So(s.Percentile(50), ShouldEqual, 0)

		for i := 1; i <= 10; i++ {
			s.Latencies = append(s.Latencies, time.Duration(i)*time.Millisecond)
		}
		So(s.Percentile(50), ShouldEqual, 5*time.Millisecond)
		So(s.Percentile(100), ShouldEqual, 10*time.Millisecond)
	})
}
