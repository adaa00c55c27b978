// Package service wires the GameDay loader: it turns date ranges and game
// ids into queued jobs, runs them on a worker pool and reports on the
// stored tables.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/okian/breakingball/internal/adapters/mq/queue"
	"github.com/okian/breakingball/internal/adapters/mq/worker"
	"github.com/okian/breakingball/internal/adapters/repository"
	"github.com/okian/breakingball/internal/domain/dedupe"
	"github.com/okian/breakingball/internal/domain/gameid"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/okian/breakingball/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	waitPollInterval = 20 * time.Millisecond
	reportTimeout    = 5 * time.Second
	collectInterval  = time.Second
)

// Listing is the source of game ids and documents.
type Listing interface {
	Feeds
	FetchGameIDs(ctx context.Context, date time.Time) ([]string, error)
}

// Service queues and runs game loads.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.Store
	feeds    Listing
	loader   *Loader
	deduper  dedupe.Deduper
	jobQueue queue.Queue
	shared   *queue.RedisQueue
	pool     *worker.Pool
	schedule *schedule

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	dedupeTTL   time.Duration
	skipIfFinal bool
	location    *time.Location
	redis       *redis.Client
	redisKey    string
	watchSpec   string
	now         func() time.Time

	// Jobs queued by this process and not finished yet, by job id.
	pending  map[string]struct{}
	failures *multierror.Error

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many in-flight game ids are tracked.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDedupeTTL forgets in-flight game ids after ttl.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithSkipIfFinal sets the policy of jobs queued by the watch schedule.
func WithSkipIfFinal(skip bool) Option {
	return func(s *Service) {
		s.skipIfFinal = skip
	}
}

// WithLocation sets the zone feed timestamps are converted to.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithRedisQueue keeps jobs in a Redis list instead of process memory.
func WithRedisQueue(client *redis.Client, key string) Option {
	return func(s *Service) {
		s.redis = client
		s.redisKey = key
	}
}

// WithWatchSchedule loads today's games on the given cron spec while the
// service runs.
func WithWatchSchedule(spec string) Option {
	return func(s *Service) {
		s.watchSpec = spec
	}
}

// WithClock sets the time source the watch schedule reads today from.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service loading games from feeds into store.
func New(store *repository.Store, feeds Listing, opts ...Option) *Service {
	s := &Service{
		store:       store,
		feeds:       feeds,
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10000,
		dedupeSize:  50000,
		dedupeTTL:   time.Hour,
		skipIfFinal: true,
		now:         time.Now,
		pending:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	s.loader = NewLoader(feeds, store, WithLoaderLocation(s.location), WithLoaderLogger(s.logger))
	return s
}

// Loader returns the loader jobs run on.
func (s *Service) Loader() *Loader { return s.loader }

// Start creates the queue and starts the workers and the watch schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting loader service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(s.dedupeTTL),
	)
	s.shared = nil
	if s.redis != nil {
		s.shared = queue.NewRedisQueue(s.redis,
			queue.WithKey(s.redisKey),
			queue.WithCapacity(s.queueSize),
			queue.WithLogger(s.logger),
		)
		s.jobQueue = s.shared
		s.logger.Info(ctx, "using redis queue", logger.String("key", s.redisKey), logger.String("origin", s.shared.Origin()))
	} else {
		s.jobQueue = queue.NewInMemoryQueue(
			queue.WithCapacity(s.queueSize),
			queue.WithBufferSize(s.queueSize),
		)
	}

	s.pool = worker.NewPool(s.workerCount, s.jobQueue, worker.LoaderFunc(s.runJob),
		worker.WithLogger(s.logger),
		worker.WithDone(s.jobDone),
	)
	s.pool.Start(runCtx)
	if s.shared != nil {
		go s.collectLoop(runCtx)
	}

	if s.watchSpec != "" {
		sch, err := newSchedule(runCtx, s.watchSpec, s.watchToday, s.logger)
		if err != nil {
			cancel()
			_ = s.pool.Shutdown(ctx)
			return err
		}
		s.schedule = sch
		s.schedule.start()
	}

	s.cancel = cancel
	s.started = true
	s.logger.Info(ctx, "loader service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("watch", s.watchSpec),
	)
	return nil
}

// Stop stops the schedule and the workers. The store stays open.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	sch, pool, cancel := s.schedule, s.pool, s.cancel
	s.schedule = nil
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping loader service...")
	if sch != nil {
		sch.stop()
	}
	// Workers report back through jobDone, so s.mu must not be held here.
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	cancel()

	s.mu.Lock()
	if n := len(s.pending); n > 0 {
		s.logger.Warn(ctx, "jobs abandoned", logger.Int("jobs", n))
	}
	s.pending = make(map[string]struct{})
	s.mu.Unlock()
	s.logger.Info(ctx, "loader service stopped")
}

// LoadGame loads one game in the calling goroutine.
func (s *Service) LoadGame(ctx context.Context, id string, skipIfFinal bool) (*Outcome, error) {
	return s.loader.Load(ctx, id, skipIfFinal)
}

// seenAndRecord reports whether a load of id is already queued or running,
// and records it if not. s.mu must be held.
func (s *Service) seenAndRecord(ctx context.Context, id string) bool {
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordJobDuplicate()
	}
	return seen
}

// unrecord releases id so it can be queued again. s.mu must be held.
func (s *Service) unrecord(ctx context.Context, id string) {
	if s.deduper == nil {
		return
	}
	s.deduper.Unrecord(ctx, id)
}

// Enqueue queues a load of game id. It returns false without error when a
// load of the game is already pending.
func (s *Service) Enqueue(ctx context.Context, id string, skipIfFinal bool) (bool, error) {
	if _, err := gameid.DecodeDate(id); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return false, ErrNotStarted
	}

	if s.seenAndRecord(ctx, id) {
		s.logger.Debug(ctx, "load already pending", logger.GameID(id))
		return false, nil
	}
	j := queue.NewJob(id, skipIfFinal)
	if !s.jobQueue.Enqueue(ctx, j) {
		s.unrecord(ctx, id)
		return false, fmt.Errorf("%w: %s", ErrQueueFull, id)
	}
	s.pending[j.ID] = struct{}{}
	s.logger.Debug(ctx, "load queued",
		logger.GameID(id),
		logger.String("job_id", j.ID),
		logger.Bool("skip_if_final", skipIfFinal),
	)
	return true, nil
}

// RangeReport summarizes a LoadRange call.
type RangeReport struct {
	Days       int `json:"days"`
	Games      int `json:"games"`
	Queued     int `json:"queued"`
	Duplicates int `json:"duplicates"`
}

// LoadRange queues every game listed on each day from start to end
// inclusive. With refresh, games already stored as Final are loaded again.
// Games that could not be queued are collected into the returned error;
// the other games are still queued.
func (s *Service) LoadRange(ctx context.Context, start, end time.Time, refresh bool) (*RangeReport, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	report := &RangeReport{}
	var result *multierror.Error
	for _, day := range gameid.DateRange(start, end) {
		ids, err := s.feeds.FetchGameIDs(ctx, day)
		if err != nil {
			return report, err
		}
		report.Days++
		report.Games += len(ids)
		s.logger.Info(ctx, "games listed", logger.String("date", day.Format(time.DateOnly)), logger.Int("games", len(ids)))

		for _, id := range ids {
			queued, err := s.Enqueue(ctx, id, !refresh)
			switch {
			case err != nil:
				if errors.Is(err, ErrNotStarted) {
					return report, err
				}
				result = multierror.Append(result, err)
			case queued:
				report.Queued++
			default:
				report.Duplicates++
			}
		}
	}
	return report, result.ErrorOrNil()
}

// Wait blocks until every job queued by this process has finished and
// returns the failures collected since the last Wait. With a Redis queue a
// job may finish in another process; its result is read back from Redis.
func (s *Service) Wait(ctx context.Context) error {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		s.collect(ctx)
		s.mu.Lock()
		if len(s.pending) == 0 {
			failures := s.failures
			s.failures = nil
			s.mu.Unlock()
			return failures.ErrorOrNil()
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runJob(ctx context.Context, j queue.Job) error {
	_, err := s.loader.Load(ctx, j.GameID, j.SkipIfFinal)
	return err
}

// jobDone runs on the worker that finished j. Jobs from a Redis queue are
// reported to the process that pushed them, this one included.
func (s *Service) jobDone(j queue.Job, err error) {
	s.mu.RLock()
	shared := s.shared
	s.mu.RUnlock()

	if shared != nil && j.Origin != "" {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		rerr := shared.Report(ctx, j, err)
		cancel()
		if rerr == nil {
			return
		}
		s.logger.Warn(ctx, "job result not reported", logger.GameID(j.GameID), logger.Error(rerr))
		if j.Origin != shared.Origin() {
			return
		}
	}
	s.finish(j.ID, j.GameID, err)
}

// collect applies the results reported to Redis for jobs queued here.
func (s *Service) collect(ctx context.Context) {
	s.mu.RLock()
	shared := s.shared
	s.mu.RUnlock()
	if shared == nil {
		return
	}
	results, err := shared.Results(ctx)
	if err != nil {
		s.logger.Warn(ctx, "job results unavailable", logger.Error(err))
	}
	for _, r := range results {
		s.finish(r.JobID, r.GameID, r.Failure())
	}
}

// collectLoop keeps pending jobs current when nobody calls Wait.
func (s *Service) collectLoop(ctx context.Context) {
	ticker := time.NewTicker(collectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

// finish releases a pending job and records its failure.
func (s *Service) finish(jobID, gameID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[jobID]; !ok {
		return
	}
	delete(s.pending, jobID)
	s.unrecord(context.Background(), gameID)
	if err != nil {
		s.failures = multierror.Append(s.failures, fmt.Errorf("%s: %w", gameID, err))
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"watch":       s.watchSpec,
	}

	if s.started {
		stats["queueLength"] = s.jobQueue.Len(ctx)
		stats["pending"] = len(s.pending)
		stats["inFlight"] = s.deduper.Size()
		stats["activeWorkers"] = s.pool.Active()
		if s.schedule != nil {
			if next := s.schedule.next(); !next.IsZero() {
				stats["nextWatch"] = next
			}
		}
	}

	if s.store != nil {
		counts, err := s.store.Counts(ctx)
		if err != nil {
			s.logger.Warn(ctx, "table counts unavailable", logger.Error(err))
			metrics.RecordErrorByComponent("service", "counts")
		} else {
			stats["tables"] = counts
		}
	}
	return stats
}

// Size returns the number of game loads in flight.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
