package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/breakingball/internal/domain/extract"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/robfig/cron/v3"
)

// schedule runs one job on a cron spec. A run still in progress when the
// next one is due makes the next one skip.
type schedule struct {
	cron *cron.Cron
	id   cron.EntryID
	spec string
	log  logger.Logger
}

func newSchedule(ctx context.Context, spec string, job func(context.Context), log logger.Logger) (*schedule, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		job(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	return &schedule{cron: c, id: id, spec: spec, log: log}, nil
}

func (s *schedule) start() {
	s.cron.Start()
	s.log.Info(context.Background(), "watch schedule started",
		logger.String("spec", s.spec),
		logger.Any("next", s.next()),
	)
}

// stop waits for a running job to return.
func (s *schedule) stop() {
	<-s.cron.Stop().Done()
	s.log.Info(context.Background(), "watch schedule stopped")
}

func (s *schedule) next() time.Time {
	return s.cron.Entry(s.id).Next
}

// Today returns the current date in the feed's zone as midnight UTC, the
// form game ids and day listings use.
func (s *Service) Today() time.Time {
	loc := s.location
	if loc == nil {
		if l, err := time.LoadLocation(extract.DefaultTimezone); err == nil {
			loc = l
		} else {
			loc = time.UTC
		}
	}
	y, m, d := s.now().In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// watchToday queues every game listed for today.
func (s *Service) watchToday(ctx context.Context) {
	today := s.Today()
	report, err := s.LoadRange(ctx, today, today, !s.skipIfFinal)
	if err != nil {
		s.logger.Warn(ctx, "watch run incomplete", logger.Error(err))
	}
	if report != nil {
		s.logger.Info(ctx, "watch run queued games",
			logger.String("date", today.Format(time.DateOnly)),
			logger.Int("games", report.Games),
			logger.Int("queued", report.Queued),
			logger.Int("duplicates", report.Duplicates),
		)
	}
}
