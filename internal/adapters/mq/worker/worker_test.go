package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/breakingball/internal/adapters/mq/queue"
	"github.com/okian/breakingball/internal/adapters/mq/worker"
	logging "github.com/okian/breakingball/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 64)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []string
	errs   map[string]error
	panics map[string]bool
}

func newMockLoader() *mockLoader {
	return &mockLoader{errs: make(map[string]error), panics: make(map[string]bool)}
}

func (ml *mockLoader) Load(ctx context.Context, j queue.Job) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.panics[j.GameID] {
		panic("boom")
	}
	if err := ml.errs[j.GameID]; err != nil {
		return err
	}
	ml.loaded = append(ml.loaded, j.GameID)
	return nil
}

func (ml *mockLoader) count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return len(ml.loaded)
}

type slowLoader struct {
	*mockLoader
	delay time.Duration
}

func (sl *slowLoader) Load(ctx context.Context, j queue.Job) error {
	time.Sleep(sl.delay)
	return sl.mockLoader.Load(ctx, j)
}

type result struct {
	job queue.Job
	err error
}

func collector(buf int) (chan result, worker.Option) {
	results := make(chan result, buf)
	return results, worker.WithDone(func(j queue.Job, err error) {
		results <- result{job: j, err: err}
	})
}

func await(results chan result) result {
	select {
	case r := <-results:
		return r
	case <-time.After(2 * time.Second):
		return result{err: errors.New("timed out waiting for job")}
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading a queue", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		loader := newMockLoader()
		results, done := collector(8)
		w := worker.NewInMemoryWorker(q, loader, worker.WithName("test-worker"), done)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			q.jobs <- queue.NewJob("gid_2015_04_27_phimlb_slnmlb_1", true)
			r := await(results)

			convey.Convey("Then the loader receives it", func() {
				convey.So(r.err, convey.ShouldBeNil)
				convey.So(r.job.GameID, convey.ShouldEqual, "gid_2015_04_27_phimlb_slnmlb_1")
				convey.So(loader.count(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the loader fails", func() {
			loader.errs["gid_bad"] = errors.New("persist failed")
			j := queue.NewJob("gid_bad", true)
			q.jobs <- j
			r := await(results)

			convey.Convey("Then the error names the job", func() {
				convey.So(r.err, convey.ShouldNotBeNil)
				convey.So(r.err.Error(), convey.ShouldContainSubstring, j.ID)
			})

			convey.Convey("And the worker keeps going", func() {
				q.jobs <- queue.NewJob("gid_next", true)
				r := await(results)
				convey.So(r.err, convey.ShouldBeNil)
				convey.So(r.job.GameID, convey.ShouldEqual, "gid_next")
			})
		})

		convey.Convey("When the loader panics", func() {
			loader.panics["gid_panic"] = true
			q.jobs <- queue.NewJob("gid_panic", true)
			r := await(results)

			convey.Convey("Then the panic becomes an error", func() {
				convey.So(errors.Is(r.err, worker.ErrPanic), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it stops, and stopping twice is allowed", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, newMockQueue(), newMockLoader())

			convey.Convey("Then it sizes itself from the CPU count", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
				convey.So(pool.Active(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When many jobs are queued", func() {
			q := newMockQueue()
			loader := newMockLoader()
			results, done := collector(64)
			pool := worker.NewPool(4, q, loader, done)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			const n = 40
			for i := 0; i < n; i++ {
				q.jobs <- queue.NewJob(fmt.Sprintf("gid_%02d", i), true)
			}
			seen := make(map[string]bool)
			for i := 0; i < n; i++ {
				r := await(results)
				convey.So(r.err, convey.ShouldBeNil)
				seen[r.job.GameID] = true
			}

			convey.Convey("Then every job is loaded once", func() {
				convey.So(len(seen), convey.ShouldEqual, n)
				convey.So(loader.count(), convey.ShouldEqual, n)
			})

			convey.Convey("Then shutdown closes the queue and returns", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				_, open := <-q.jobs
				convey.So(open, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a pool is shut down with jobs still queued", func() {
			q := newMockQueue()
			loader := &slowLoader{mockLoader: newMockLoader(), delay: 5 * time.Millisecond}
			pool := worker.NewPool(2, q, loader)
			for i := 0; i < 20; i++ {
				q.jobs <- queue.NewJob(fmt.Sprintf("gid_%02d", i), true)
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the workers drain the queue first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(loader.count(), convey.ShouldEqual, 20)
				convey.So(pool.Active(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a started pool is stopped", func() {
			pool := worker.NewPool(2, newMockQueue(), newMockLoader())
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)
			pool.Stop()

			convey.Convey("Then no job is in flight", func() {
				convey.So(pool.Active(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestLoaderFunc(t *testing.T) {
	convey.Convey("Given a plain function", t, func() {
		var got string
		l := worker.LoaderFunc(func(ctx context.Context, j queue.Job) error {
			got = j.GameID
			return nil
		})

		convey.Convey("Then it satisfies Loader", func() {
			convey.So(l.Load(context.Background(), queue.Job{GameID: "gid_x"}), convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, "gid_x")
		})
	})
}
