package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/sitescore/internal/adapters/mq/queue"
	"github.com/okian/sitescore/internal/adapters/mq/worker"
	"github.com/okian/sitescore/internal/domain/dedupe"
	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobs chan worker.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan worker.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan worker.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockRecalculator struct {
	mu     sync.Mutex
	calls  []string
	errors map[string]error
}

func newMockRecalculator() *mockRecalculator {
	return &mockRecalculator{errors: make(map[string]error)}
}

func (m *mockRecalculator) Recalculate(_ context.Context, siteID string) (model.CompositeScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, siteID)
	if err, ok := m.errors[siteID]; ok {
		return model.CompositeScore{}, err
	}
	return model.CompositeScore{SiteID: siteID, OverallScore: 72, Grade: "B"}, nil
}

func (m *mockRecalculator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := newMockQueue()
		recalc := newMockRecalculator()
		pending := dedupe.NewInMemoryDeduper()

		w := worker.NewInMemoryWorker(q, recalc,
			worker.WithName("test-worker"),
			worker.WithLogger(logger.NewNop()),
			worker.WithReleaser(pending),
		)
		go w.Run(ctx)

		convey.Convey("When a job is processed", func() {
			pending.SeenAndRecord(ctx, "site-1")
			q.jobs <- worker.Job{JobID: "job-1", SiteID: "site-1", EnqueuedAt: time.Now()}

			convey.Convey("Then the site is recalculated and released", func() {
				convey.So(eventually(func() bool { return recalc.callCount() == 1 }), convey.ShouldBeTrue)
				convey.So(eventually(func() bool { return pending.Size() == 0 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When recalculation fails", func() {
			recalc.errors["site-2"] = errors.New("metrics repository unavailable")
			pending.SeenAndRecord(ctx, "site-2")
			q.jobs <- worker.Job{JobID: "job-2", SiteID: "site-2"}

			convey.Convey("Then the site is still released for retry", func() {
				convey.So(eventually(func() bool { return pending.Size() == 0 }), convey.ShouldBeTrue)
				convey.So(recalc.callCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When shutting down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		w := worker.NewInMemoryWorker(newMockQueue(), newMockRecalculator(), worker.WithLogger(logger.NewNop()))
		stopped := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(stopped)
		}()
		cancel()

		convey.Convey("Then the worker stops", func() {
			select {
			case <-stopped:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("worker did not stop", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool reading from a real queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		recalc := newMockRecalculator()
		pending := dedupe.NewInMemoryDeduper()
		pool := worker.NewPool(4, q, recalc, worker.WithReleaser(pending), worker.WithLogger(logger.NewNop()))

		convey.So(pool.Size(), convey.ShouldEqual, 4)
		pool.Start(ctx)

		convey.Convey("When many sites are enqueued", func() {
			for i := 0; i < 50; i++ {
				site := fmt.Sprintf("site-%d", i)
				pending.SeenAndRecord(ctx, site)
				convey.So(q.Enqueue(ctx, worker.Job{JobID: "batch", SiteID: site}), convey.ShouldBeNil)
			}

			convey.Convey("Then every site is recalculated once and released", func() {
				convey.So(eventually(func() bool { return recalc.callCount() == 50 }), convey.ShouldBeTrue)
				convey.So(eventually(func() bool { return pending.Size() == 0 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			convey.So(q.Enqueue(ctx, worker.Job{SiteID: "last"}), convey.ShouldBeNil)
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the queue is closed after draining", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(recalc.callCount(), convey.ShouldEqual, 1)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newMockRecalculator())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
