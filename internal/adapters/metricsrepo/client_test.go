package metricsrepo_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/sitescore/internal/adapters/metricsrepo"
	"github.com/okian/sitescore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const sitePayload = `[
	{"siteId":"site-1","metricType":"demographics","metricName":"Population Growth","value":2.0},
	{"siteId":"site-1","metricType":"financial","metricName":"Median Income","value":null}
]`

func TestClientFetch(t *testing.T) {
	Convey("Given a metrics repository", t, func() {
		var gotPath, gotEscaped, gotAccept string
		etag := ""
		status := http.StatusOK
		body := sitePayload
		delay := time.Duration(0)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotEscaped = r.URL.EscapedPath()
			gotAccept = r.Header.Get("Accept")
			if delay > 0 {
				time.Sleep(delay)
			}
			if etag != "" {
				w.Header().Set("ETag", etag)
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		client, err := metricsrepo.New(srv.URL+"/api", metricsrepo.WithTimeout(time.Second))
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When the site exists without an ETag", func() {
			snap, err := client.Fetch(ctx, "site-1")

			Convey("Then metrics decode and the version is the fingerprint", func() {
				So(err, ShouldBeNil)
				So(gotPath, ShouldEqual, "/api/sites/site-1/metrics")
				So(gotAccept, ShouldEqual, "application/json")
				So(snap.SiteID, ShouldEqual, "site-1")
				So(snap.Metrics, ShouldHaveLength, 2)
				So(snap.Metrics[1].Value, ShouldBeNil)
				So(snap.Version, ShouldEqual, scoring.Fingerprint(snap.Metrics))
			})
		})

		Convey("When the repository sends an ETag", func() {
			etag = `"rev-42"`
			snap, err := client.Fetch(ctx, "site-1")

			Convey("Then the ETag is the version", func() {
				So(err, ShouldBeNil)
				So(snap.Version, ShouldEqual, "rev-42")
			})
		})

		Convey("When the site ID needs escaping", func() {
			_, err := client.Fetch(ctx, "lot 7/b")
			So(err, ShouldBeNil)

			Convey("Then the whole ID stays in one path segment", func() {
				So(gotPath, ShouldEqual, "/api/sites/lot 7/b/metrics")
				So(gotEscaped, ShouldEqual, "/api/sites/lot%207%2Fb/metrics")
			})
		})

		Convey("When the site is unknown", func() {
			status = http.StatusNotFound
			body = `{"error":"no such site"}`
			_, err := client.Fetch(ctx, "ghost")

			Convey("Then ErrSiteNotFound is returned", func() {
				So(errors.Is(err, metricsrepo.ErrSiteNotFound), ShouldBeTrue)
			})
		})

		Convey("When the repository fails", func() {
			status = http.StatusBadGateway
			_, err := client.Fetch(ctx, "site-1")

			Convey("Then ErrUpstream is returned", func() {
				So(errors.Is(err, metricsrepo.ErrUpstream), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "502")
			})
		})

		Convey("When the body is not a metric list", func() {
			body = `{"unexpected":true}`
			_, err := client.Fetch(ctx, "site-1")
			So(errors.Is(err, metricsrepo.ErrUpstream), ShouldBeTrue)
		})

		Convey("When the repository is slower than the timeout", func() {
			delay = 200 * time.Millisecond
			slow, err := metricsrepo.New(srv.URL, metricsrepo.WithTimeout(20*time.Millisecond))
			So(err, ShouldBeNil)
			_, err = slow.Fetch(ctx, "site-1")

			Convey("Then the call fails with a deadline error", func() {
				So(errors.Is(err, metricsrepo.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given client construction", t, func() {
		Convey("Then an empty URL means the repository is not configured", func() {
			_, err := metricsrepo.New("  ")
			So(errors.Is(err, metricsrepo.ErrNotConfigured), ShouldBeTrue)
		})

		Convey("Then unsupported schemes are rejected", func() {
			_, err := metricsrepo.New("ftp://metrics")
			So(err, ShouldNotBeNil)
		})

		Convey("Then a custom HTTP client is accepted", func() {
			c, err := metricsrepo.New("https://metrics.example", metricsrepo.WithHTTPClient(&http.Client{}))
			So(err, ShouldBeNil)
			So(c, ShouldNotBeNil)
		})
	})
}
