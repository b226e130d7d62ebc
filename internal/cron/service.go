package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
	"github.com/autoflexeasy/autoflex-backend/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

// ErrUnknownJob is returned by RunJob for names not in the registry.
var ErrUnknownJob = errors.New("unknown cron job")

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Locker
	Metrics  *metrics.CronMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run. Zero means no bound.
	JobTimeout time.Duration
}

// Service runs the registry on a fixed cadence. Each tick takes the shared
// lock first so several worker replicas never run the same cycle twice.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Locker
	metrics    *metrics.CronMetrics
	interval   time.Duration
	jobTimeout time.Duration
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	var errs error
	if params.Logger == nil {
		errs = multierr.Append(errs, errors.New("logger required"))
	}
	if params.Lock == nil {
		errs = multierr.Append(errs, errors.New("lock required"))
	}
	if params.Registry == nil {
		errs = multierr.Append(errs, errors.New("registry required"))
	}
	if errs != nil {
		return nil, errs
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   interval,
		jobTimeout: params.JobTimeout,
		now:        time.Now,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron.cycle_failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes every job once under the lock and joins job failures.
func (s *Service) RunOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.locked(ctx, func(ctx context.Context) error {
		var errs error
		for _, job := range s.registry.Jobs() {
			errs = multierr.Append(errs, s.runJob(ctx, job))
		}
		return errs
	})
}

// RunJob executes the named job once under the lock.
func (s *Service) RunJob(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w %q (have %v)", ErrUnknownJob, name, s.registry.Names())
	}
	return s.locked(ctx, func(ctx context.Context) error {
		return s.runJob(ctx, job)
	})
}

func (s *Service) locked(ctx context.Context, fn func(context.Context) error) error {
	lease, acquired, err := s.lock.TryAcquire(ctx)
	if err != nil {
		s.metrics.ObserveCycle(metrics.CycleLockError)
		return err
	}
	if !acquired {
		s.metrics.ObserveCycle(metrics.CycleSkipped)
		s.logg.Info(ctx, "cron.cycle_skipped")
		return nil
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cron.lock_release_failed")
		}
	}()
	s.metrics.ObserveCycle(metrics.CycleRan)
	return fn(ctx)
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	started := s.now()
	err := job.Run(ctx)
	finished := s.now()
	took := finished.Sub(started)
	s.metrics.ObserveJob(job.Name(), took, finished, err)

	ctx = s.logg.WithField(ctx, "duration_ms", took.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron.job_failed", err)
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	s.logg.Info(ctx, "cron.job_done")
	return nil
}
