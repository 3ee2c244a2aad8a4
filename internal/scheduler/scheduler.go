package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	pruneTimeout          = 5 * time.Minute
)

// Pruner deletes history older than a cutoff. *history.Store satisfies it.
type Pruner interface {
	PruneBefore(ctx context.Context, t time.Time) (int64, error)
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	spec      string
	retention time.Duration
	pruner    Pruner
	log       *slog.Logger
	now       func() time.Time
}

func New(ctx context.Context, spec string, retention time.Duration, pruner Pruner, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		spec:      spec,
		retention: retention,
		pruner:    pruner,
		log:       log,
		now:       time.Now,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.pruneHistory); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) pruneHistory() {
	ctx, cancel := context.WithTimeout(s.ctx, pruneTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	if s.retention <= 0 {
		return
	}

	cutoff := s.now().Add(-s.retention)

	pruned, err := s.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to prune history",
			"error", err,
			"cutoff", cutoff,
			"retention", s.retention.String())
		return
	}

	s.log.InfoContext(ctx, "History is pruned",
		"pruned", pruned,
		"cutoff", cutoff,
		"retention", s.retention.String())
}
