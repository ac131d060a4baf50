package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sitescore/internal/adapters/repository"
	"github.com/okian/sitescore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func snapshot(site string, overall int, grade string) model.CompositeScore {
	return model.CompositeScore{
		SiteID:         site,
		OverallScore:   overall,
		Grade:          grade,
		Label:          "Moderate Opportunity",
		ColorToken:     "yellow",
		ComputedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		MetricsVersion: "abc123",
		Categories: []model.CategoryScore{
			{Key: "demographics", Score: 63},
			{Key: "risk", Score: 40},
		},
		Warnings: []model.DataQualityWarning{
			{SiteID: site, MetricType: "risk", MetricName: "Flood Rate", Reason: "missing value"},
		},
	}
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a snapshot store in a temp directory", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "scores.db")
		store, err := repository.OpenSQLite(ctx, path, repository.WithBusyTimeout(time.Second))
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		Convey("When loading an unknown site", func() {
			_, err := store.Load(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a snapshot is saved", func() {
			So(store.Save(ctx, snapshot("site-1", 56, "C")), ShouldBeNil)

			Convey("Then it round-trips with its categories and warnings", func() {
				got, err := store.Load(ctx, "site-1")
				So(err, ShouldBeNil)
				So(got.OverallScore, ShouldEqual, 56)
				So(got.Grade, ShouldEqual, "C")
				So(got.ComputedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(got.Categories, ShouldResemble, snapshot("site-1", 56, "C").Categories)
				So(got.Warnings, ShouldHaveLength, 1)
			})

			Convey("And then overwritten by a recalculation", func() {
				So(store.Save(ctx, snapshot("site-1", 41, "D")), ShouldBeNil)

				Convey("Then only the latest snapshot remains", func() {
					got, err := store.Load(ctx, "site-1")
					So(err, ShouldBeNil)
					So(got.OverallScore, ShouldEqual, 41)
					all, err := store.List(ctx)
					So(err, ShouldBeNil)
					So(all, ShouldHaveLength, 1)
				})
			})
		})

		Convey("When several sites are saved", func() {
			So(store.Save(ctx, snapshot("site-b", 70, "B")), ShouldBeNil)
			So(store.Save(ctx, snapshot("site-a", 90, "A")), ShouldBeNil)

			Convey("Then List returns them ordered by site ID", func() {
				all, err := store.List(ctx)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 2)
				So(all[0].SiteID, ShouldEqual, "site-a")
				So(all[1].SiteID, ShouldEqual, "site-b")
			})
		})

		Convey("When the database is reopened", func() {
			So(store.Save(ctx, snapshot("site-1", 56, "C")), ShouldBeNil)
			So(store.Close(), ShouldBeNil)

			reopened, err := repository.OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer func() { _ = reopened.Close() }()

			Convey("Then snapshots survive", func() {
				got, err := reopened.Load(ctx, "site-1")
				So(err, ShouldBeNil)
				So(got.OverallScore, ShouldEqual, 56)
			})
		})
	})

	Convey("Given persistence is disabled", t, func() {
		var store repository.SnapshotStore = repository.NopSnapshotStore{}
		ctx := context.Background()

		So(store.Save(ctx, snapshot("site-1", 56, "C")), ShouldBeNil)
		_, err := store.Load(ctx, "site-1")
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		all, err := store.List(ctx)
		So(err, ShouldBeNil)
		So(all, ShouldBeEmpty)
	})
}
