package monitoring

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/oops"
)

// Pruner deletes audit events older than a retention period.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Scheduler runs the audit pruning job on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	pruner    Pruner
	retention time.Duration
	timeout   time.Duration
	runs      atomic.Int64
}

// NewScheduler creates a scheduler for a standard five-field cron
// expression (descriptors like "@daily" are accepted too).
func NewScheduler(pruner Pruner, schedule string, retention time.Duration) (*Scheduler, error) {
	logger := cronLogger{log: log.With().Str("component", "scheduler").Logger()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		pruner:    pruner,
		retention: retention,
		timeout:   time.Minute,
	}

	if _, err := s.cron.AddFunc(schedule, s.runJob); err != nil {
		return nil, oops.Code("SCHEDULER_INVALID_SCHEDULE").With("schedule", schedule).Wrap(err)
	}
	return s, nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	log.Info().Dur("retention", s.retention).Msg("Starting audit pruning scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish or ctx to
// end, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Info().Msg("Stopped audit pruning scheduler")
	case <-ctx.Done():
		log.Warn().Msg("Audit pruning job still running at shutdown")
	}
}

// Runs returns how many times the job has completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// RunOnce prunes immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.pruner.Prune(ctx, s.retention)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("Pruned audit events")
	}
	return n, nil
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to prune audit events")
	}
	s.runs.Add(1)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
